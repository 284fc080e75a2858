package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shoplist/api/internal/session"
	"github.com/shoplist/api/pkg/utils"
)

// Version is the server version, injected at build time:
//
//	go build -ldflags "-X github.com/shoplist/api/internal/handlers.Version=1.2.3"
var Version = "dev"

const apiVersion = "v1"

type versionResponse struct {
	Version     string `json:"version"`
	APIVersion  string `json:"apiVersion"`
	Revocations string `json:"revocations"`
}

// GetVersion reports build information along with where logged-out tokens
// are tracked, so clients can tell whether a logout holds across instances.
func GetVersion(revoked session.RevocationList) fiber.Handler {
	backend := "none"
	if revoked != nil {
		backend = revoked.Backend()
	}
	return func(c *fiber.Ctx) error {
		return utils.Success(c, fiber.StatusOK, versionResponse{
			Version:     Version,
			APIVersion:  apiVersion,
			Revocations: backend,
		})
	}
}
