package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/workbridge/calling/pkg/internal/database"
	"github.com/workbridge/calling/pkg/internal/models"
	"github.com/workbridge/calling/pkg/internal/services"
)

const bearerPrefix = "Bearer "

func authMiddleware(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if !strings.HasPrefix(raw, bearerPrefix) {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(strings.TrimPrefix(raw, bearerPrefix), &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("security.jwt_secret")), nil
	}); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
	}

	accountId, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
	}

	var user models.Account
	if err := database.C.First(&user, "id = ?", uint(accountId)).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown principal")
	}

	c.Locals("user", user)

	return c.Next()
}

func workspaceMiddleware(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)
	alias := c.Params("workspace")

	workspace, member, err := services.GetWorkspaceIdentity(alias, user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "workspace not found")
	}

	c.Locals("workspace", workspace)
	c.Locals("member", member)

	return c.Next()
}
