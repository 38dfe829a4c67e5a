package user

// UpsertRequest is sent by the frontend after every sign-in
type UpsertRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=255"`
	Photo string `json:"photo" validate:"omitempty,max=2048"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

type RoleResponse struct {
	Role string `json:"role"`
}

type UpsertResponse struct {
	Inserted   bool   `json:"inserted"`
	InsertedID string `json:"insertedId,omitempty"`
}
