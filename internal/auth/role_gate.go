package auth

import "inventory/internal/models"

// Authorize reports whether role is one of required. An empty required set
// allows nobody.
func Authorize(role models.Role, required ...models.Role) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
