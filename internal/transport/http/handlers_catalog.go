package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogdomain "github.com/pawmart/pawmart-api/internal/domains/catalog/domain"
	catalogports "github.com/pawmart/pawmart-api/internal/domains/catalog/ports"
	sharederrors "github.com/pawmart/pawmart-api/internal/shared/errors"
)

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

type addPetRequest struct {
	Name        string           `json:"name" binding:"required"`
	Species     string           `json:"species" binding:"required"`
	Breed       string           `json:"breed"`
	Gender      string           `json:"gender" binding:"required"`
	Size        string           `json:"size"`
	AgeMonths   int              `json:"ageMonths"`
	Color       string           `json:"color"`
	Price       float64          `json:"price"`
	Description string           `json:"description"`
	PhotoURLs   []string         `json:"photoUrls"`
	Location    *locationRequest `json:"location"`
}

type updatePetRequest struct {
	Name          *string          `json:"name"`
	Breed         *string          `json:"breed"`
	Size          *string          `json:"size"`
	AgeMonths     *int             `json:"ageMonths"`
	Color         *string          `json:"color"`
	Price         *float64         `json:"price"`
	Description   *string          `json:"description"`
	PhotoURLs     *[]string        `json:"photoUrls"`
	Location      *locationRequest `json:"location"`
	ClearLocation bool             `json:"clearLocation"`
}

// searchPets handles the public browse endpoint. Without an explicit status
// filter only available pets are returned.
func (s *Server) searchPets(c *gin.Context) {
	query := catalogports.SearchQuery{
		Text:    strings.TrimSpace(c.Query("q")),
		Species: strings.TrimSpace(c.Query("species")),
		Limit:   intQuery(c, "limit", 0),
		Offset:  intQuery(c, "offset", 0),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			query.Statuses = append(query.Statuses, catalogdomain.Status(raw))
		}
	}
	if latRaw := c.Query("lat"); latRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		radius, radiusErr := strconv.ParseFloat(c.DefaultQuery("radiusKm", "50"), 64)
		if latErr != nil || lngErr != nil || radiusErr != nil {
			s.responder.BadRequest(c, "lat, lng and radiusKm must be numbers")
			return
		}
		query.Near = &catalogports.GeoFilter{Latitude: lat, Longitude: lng, RadiusKm: radius}
	}

	pets, err := s.catalog.Search(c.Request.Context(), query)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pets": toPetResponses(pets)})
}

func (s *Server) getPet(c *gin.Context) {
	id, ok := pathUUID(c, "petID")
	if !ok {
		return
	}
	pet, err := s.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPetResponse(pet))
}

func (s *Server) addPet(c *gin.Context) {
	var req addPetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	input := catalogports.AddPetInput{
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		Gender:      catalogdomain.Gender(req.Gender),
		Size:        catalogdomain.Size(req.Size),
		AgeMonths:   req.AgeMonths,
		Color:       req.Color,
		Price:       req.Price,
		Description: req.Description,
		PhotoURLs:   req.PhotoURLs,
	}
	if req.Location != nil {
		input.Location = &catalogdomain.Location{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
			Name:      req.Location.Name,
		}
	}
	if userID, ok := callerUserID(c); ok {
		input.CreatedBy = &userID
	}

	pet, err := s.catalog.AddPet(c.Request.Context(), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPetResponse(pet))
}

func (s *Server) updatePet(c *gin.Context) {
	id, ok := pathUUID(c, "petID")
	if !ok {
		return
	}
	var req updatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	input := catalogports.UpdatePetInput{
		ID:            id,
		Name:          req.Name,
		Breed:         req.Breed,
		AgeMonths:     req.AgeMonths,
		Color:         req.Color,
		Price:         req.Price,
		Description:   req.Description,
		PhotoURLs:     req.PhotoURLs,
		ClearLocation: req.ClearLocation,
	}
	if req.Size != nil {
		size := catalogdomain.Size(*req.Size)
		input.Size = &size
	}
	if req.Location != nil {
		input.Location = &catalogdomain.Location{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
			Name:      req.Location.Name,
		}
	}

	pet, err := s.catalog.UpdatePet(c.Request.Context(), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPetResponse(pet))
}

func (s *Server) deletePet(c *gin.Context) {
	id, ok := pathUUID(c, "petID")
	if !ok {
		return
	}
	if err := s.catalog.Delete(c.Request.Context(), id); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		sharederrors.Respond(c, sharederrors.ErrBadRequest.WithDetail(name+" must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
