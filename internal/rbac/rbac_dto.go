package rbac

type EnforceRequest struct {
	Permission string `json:"permission" binding:"required"`
}

type EnforceResponse struct {
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

type PermissionsResponse struct {
	ActorID     string   `json:"actor_id"`
	Role        string   `json:"role"`
	Status      string   `json:"status"`
	Permissions []string `json:"permissions"`
}
