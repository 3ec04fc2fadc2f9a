package repositories

import "gorm.io/gorm"

// Repositories bundles the gorm-backed stores sharing one connection pool.
type Repositories struct {
	Users       *UserRepository
	Projects    *ProjectRepository
	Memberships *MembershipRepository
	Tasks       *TaskRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(db),
		Projects:    NewProjectRepository(db),
		Memberships: NewMembershipRepository(db),
		Tasks:       NewTaskRepository(db),
	}
}
