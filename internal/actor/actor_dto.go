package actor

type UpdateOverridesRequest struct {
	Overrides map[string]bool `json:"overrides" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive suspended"`
}

type ActorResponse struct {
	ID                  string          `json:"id"`
	FullName            string          `json:"full_name"`
	Email               string          `json:"email"`
	Role                string          `json:"role"`
	Status              string          `json:"status"`
	PermissionOverrides map[string]bool `json:"permission_overrides"`
	Permissions         []string        `json:"permissions"`
}
