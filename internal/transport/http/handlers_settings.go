package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	settingsdomain "github.com/pawmart/pawmart-api/internal/domains/settings/domain"
	settingsports "github.com/pawmart/pawmart-api/internal/domains/settings/ports"
)

type setSettingRequest struct {
	Value string `json:"value" binding:"required"`
	Type  string `json:"type"`
}

func (s *Server) listSettings(c *gin.Context) {
	settings, err := s.settings.All(c.Request.Context())
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	resp := make([]settingResponse, 0, len(settings))
	for _, setting := range settings {
		resp = append(resp, toSettingResponse(setting))
	}
	c.JSON(http.StatusOK, gin.H{"settings": resp})
}

func (s *Server) getSetting(c *gin.Context) {
	setting, err := s.settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingResponse(setting))
}

// putSetting creates or replaces one setting. The type is optional on
// existing keys and defaults to string on new ones.
func (s *Server) putSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	input := settingsports.SetInput{
		Key:   key,
		Value: req.Value,
		Type:  settingsdomain.Type(req.Type),
	}
	if userID, ok := callerUserID(c); ok {
		input.UpdatedBy = &userID
	}
	setting, err := s.settings.Set(c.Request.Context(), input)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingResponse(setting))
}
