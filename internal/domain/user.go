package domain

// UserProfile is the flat profile record stored under users/<id>.
type UserProfile struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	Department       string `json:"department,omitempty"`
	RollNumber       string `json:"rollNumber,omitempty"`
	IsDepartmentHead bool   `json:"isDepartmentHead,omitempty"`
}

// EffectiveRole folds the head flag into the role: a teacher flagged as
// department head acts as HOD.
func (u *UserProfile) EffectiveRole() Role {
	if u.Role == RoleTeacher && u.IsDepartmentHead {
		return RoleHOD
	}
	return u.Role
}

// UserProfileFromDocument decodes a stored profile.
func UserProfileFromDocument(id string, data map[string]any) *UserProfile {
	return &UserProfile{
		ID:               id,
		Name:             getString(data, "name"),
		Email:            getString(data, "email"),
		Role:             ParseRole(getString(data, "role")),
		Department:       getString(data, "department"),
		RollNumber:       getString(data, "rollNumber"),
		IsDepartmentHead: getBool(data, "isDepartmentHead"),
	}
}

// Faculty is a teacher eligible to act on a department's requests.
type Faculty struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	IsHead     bool   `json:"isHead"`
}

// FacultyFromDocument decodes a roster or profile record of a teacher.
func FacultyFromDocument(id string, data map[string]any) Faculty {
	if stored := getString(data, "id"); stored != "" {
		id = stored
	}
	return Faculty{
		ID:         id,
		Name:       getString(data, "name"),
		Email:      getString(data, "email"),
		Department: getString(data, "department"),
		IsHead:     getBool(data, "isDepartmentHead"),
	}
}

// Assignee returns the faculty member as a leave assignee.
func (f Faculty) Assignee() *Assignee {
	role := StageTeacher
	if f.IsHead {
		role = StageHOD
	}
	return &Assignee{ID: f.ID, Name: f.Name, Email: f.Email, Role: role}
}
