package domain

type CtxKey string

const (
	KeyUserID    CtxKey = "UserID"
	KeyUserEmail CtxKey = "Email"
	KeyUserRole  CtxKey = "Role"
)

// Roles known to the merchandiser backend.
const (
	RoleMerchandiser = "merchandiser"
	RoleAkzente      = "akzente"
	RoleAdmin        = "admin"
)
