package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
)

func (s *HTTPServer) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *HTTPServer) me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		abortWithStatus(c, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (s *HTTPServer) sessionLogin(ss auth.SessionStrategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		email := c.PostForm("email")
		if email == "" {
			abortWithError(c, http.StatusBadRequest, "email missing")
			return
		}
		password := c.PostForm("password")
		if password == "" {
			abortWithError(c, http.StatusBadRequest, "password missing")
			return
		}

		identity, ok := s.identities.FindIdentity(ctx, email)
		if !ok {
			abortWithError(c, http.StatusNotFound, "no user found for this email")
			return
		}
		if !s.identities.VerifyLogin(ctx, email, password) {
			abortWithError(c, http.StatusUnauthorized, "wrong password")
			return
		}

		sessionID, ok := ss.CreateSession(identity.ID)
		if !ok {
			s.logger.Error(ctx, "could not create session", "email", email)
			abortWithError(c, http.StatusInternalServerError, "could not create session")
			return
		}

		s.logger.Info(ctx, "session login", "email", email)
		c.SetCookie(s.cookieName, sessionID, 0, "/", "", false, true)
		c.JSON(http.StatusOK, identity)
	}
}

func (s *HTTPServer) sessionLogout(ss auth.SessionStrategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ss.DestroySession(auth.HTTPRequest{R: c.Request}) {
			abortWithStatus(c, http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	}
}

func (s *HTTPServer) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Bienvenue"})
}

func (s *HTTPServer) registerUser(c *gin.Context) {
	email := c.PostForm("email")
	if email == "" {
		abortWithError(c, http.StatusBadRequest, "email is required")
		return
	}
	password := c.PostForm("password")
	if password == "" {
		abortWithError(c, http.StatusBadRequest, "password is required")
		return
	}

	identity, err := s.identities.RegisterIdentity(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
			return
		}
		if errors.Is(err, common.ErrInvalidPassword) {
			abortWithError(c, http.StatusBadRequest, "invalid password")
			return
		}
		s.logger.Error(c.Request.Context(), "registration failed", "email", email, "error", err)
		abortWithStatus(c, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": identity.Email, "message": "user created"})
}

func (s *HTTPServer) login(c *gin.Context) {
	ctx := c.Request.Context()
	email, password := c.PostForm("email"), c.PostForm("password")
	if email == "" || password == "" || !s.identities.VerifyLogin(ctx, email, password) {
		abortWithStatus(c, http.StatusUnauthorized)
		return
	}

	sessionID, ok := s.identities.CreateSession(ctx, email)
	if !ok {
		abortWithStatus(c, http.StatusUnauthorized)
		return
	}

	c.SetCookie(common.ServiceSessionCookieName, sessionID, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"email": email, "message": "logged in"})
}

func (s *HTTPServer) logout(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, err := c.Cookie(common.ServiceSessionCookieName)
	if err != nil || sessionID == "" {
		abortWithStatus(c, http.StatusForbidden)
		return
	}
	identity, ok := s.identities.ResolveSessionSubject(ctx, sessionID)
	if !ok {
		abortWithStatus(c, http.StatusForbidden)
		return
	}

	if err := s.identities.DestroySession(ctx, identity.ID); err != nil {
		s.logger.Error(ctx, "logout failed", "email", identity.Email, "error", err)
		abortWithStatus(c, http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *HTTPServer) profile(c *gin.Context) {
	sessionID, err := c.Cookie(common.ServiceSessionCookieName)
	if err != nil || sessionID == "" {
		abortWithStatus(c, http.StatusForbidden)
		return
	}
	identity, ok := s.identities.ResolveSessionSubject(c.Request.Context(), sessionID)
	if !ok {
		abortWithStatus(c, http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": identity.Email})
}

func (s *HTTPServer) resetPasswordToken(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.PostForm("email")
	if email == "" {
		abortWithError(c, http.StatusBadRequest, "email is required")
		return
	}

	token, err := s.identities.IssueResetToken(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			abortWithStatus(c, http.StatusForbidden)
			return
		}
		s.logger.Error(ctx, "issuing reset token failed", "email", email, "error", err)
		abortWithStatus(c, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email, "reset_token": token})
}

func (s *HTTPServer) updatePassword(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.PostForm("email")
	if email == "" {
		abortWithError(c, http.StatusBadRequest, "email is required")
		return
	}
	token := c.PostForm("reset_token")
	if token == "" {
		abortWithError(c, http.StatusBadRequest, "reset_token is required")
		return
	}
	newPassword := c.PostForm("new_password")
	if newPassword == "" {
		abortWithError(c, http.StatusBadRequest, "new_password is required")
		return
	}

	if _, ok := s.identities.FindIdentity(ctx, email); !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid email")
		return
	}

	if err := s.identities.RedeemResetToken(ctx, token, newPassword); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			abortWithError(c, http.StatusForbidden, "Invalid reset token")
			return
		}
		if errors.Is(err, common.ErrInvalidPassword) {
			abortWithError(c, http.StatusBadRequest, "invalid password")
			return
		}
		s.logger.Error(ctx, "password reset failed", "email", email, "error", err)
		abortWithStatus(c, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email, "message": "Password updated"})
}
