package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// SessionIDLength is the length of the random session token in bytes
	SessionIDLength = 32
)

// GenerateRandomString creates a cryptographically secure random string
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// CreateSession creates a new session for the agent and returns the token
func CreateSession(agent *models.Agent, ip, userAgent string) (string, error) {
	token, err := GenerateRandomString(SessionIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	session := models.Session{
		ID:        token,
		AgentID:   agent.ID,
		AgencyID:  agent.AgencyID,
		IPAddress: ip,
		UserAgent: userAgent,
	}

	db := database.GetDB()
	if err := db.Create(&session).Error; err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// GetSession retrieves the current session from the Authorization header
func GetSession(c *gin.Context) (*models.Session, error) {
	token := tokenFromRequest(c)
	if token == "" {
		return nil, errors.New("missing session token")
	}

	db := database.GetDB()
	var session models.Session
	if err := db.Where("id = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("session not found")
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}

	if session.IsExpired() {
		db.Delete(&session)
		return nil, errors.New("session expired")
	}

	return &session, nil
}

// DeleteSession removes the session backing the current request, if any
func DeleteSession(c *gin.Context) {
	token := tokenFromRequest(c)
	if token == "" {
		return
	}
	db := database.GetDB()
	db.Where("id = ?", token).Delete(&models.Session{})
}

// tokenFromRequest pulls the bearer token out of the Authorization header
func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
