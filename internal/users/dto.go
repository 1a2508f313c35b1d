package users

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Role        string  `json:"role" validate:"required"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=50"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
