package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
	"github.com/trackvote/trackvote/internal/pkg/database"
	"github.com/trackvote/trackvote/internal/pkg/session"
	"github.com/trackvote/trackvote/internal/pkg/usercontext"
)

// HandleAuthLogin starts the Spotify OAuth flow
func HandleAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleAuthCallback completes the provider flow and logs the user in.
// First login creates the user and its linked account; later logins just
// refresh the stored token pair.
func HandleAuthCallback(c *fiber.Ctx) error {
	// Complete OAuth with provider and obtain unified user
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	db := database.GetDB()

	// Try to find existing linked account
	var account models.LinkedAccount
	res := db.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&account)

	var appUser models.User
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		// Optional email match if provided
		if u.Email != "" {
			_ = db.Where("email = ?", u.Email).First(&appUser).Error
		}
		if appUser.ID == 0 {
			email := u.Email
			if email == "" {
				// Ensure unique, non-empty email to satisfy unique index semantics in MySQL
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			newUser, err := models.CreateUser(firstNonEmpty(u.Name, u.NickName, u.Email, "User"), email)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}
			newUser.AvatarURL = u.AvatarURL
			if err := db.Create(newUser).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}
			appUser = *newUser
		}
		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		account = models.LinkedAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      exp,
		}
		if err := db.Create(&account).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
		}
	} else if res.Error == nil {
		// Update tokens
		account.AccessToken = u.AccessToken
		if u.RefreshToken != "" {
			account.RefreshToken = u.RefreshToken
		}
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			account.ExpiresAt = &t
		} else {
			account.ExpiresAt = nil
		}
		if err := db.Save(&account).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update tokens failed: %v", err))
		}
		// Load related user
		if err := db.First(&appUser, account.UserID).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("linked user not found")
		}
	} else {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", res.Error))
	}

	// Create app session
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, appUser.ID)
	sess.Set(usercontext.KeyUsername, appUser.Name)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	// Update last login timestamp
	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	log.Infof("[Auth] User %d logged in via %s", appUser.ID, u.Provider)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleLogout destroys the app session
func HandleLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		log.Errorf("[Auth] Provider logout failed: %v", err)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Errorf("[Auth] Session destroy failed: %v", err)
		}
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
