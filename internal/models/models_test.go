package models_test

import (
	"encoding/json"
	"testing"

	"project-tracker/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		status models.TaskStatus
		want   bool
	}{
		{models.TaskStatusPending, true},
		{models.TaskStatusInProgress, true},
		{models.TaskStatusCompleted, true},
		{"cancelled", false},
		{"", false},
		{"PENDING", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Valid())
		})
	}
}

func TestProjectKind_JSON(t *testing.T) {
	payload, err := json.Marshal(map[string]models.ProjectKind{"a": models.KindOwned, "b": models.KindAssigned})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"owned","b":"assigned"}`, string(payload))

	var decoded struct {
		Kind models.ProjectKind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"assigned"}`), &decoded))
	assert.Equal(t, models.KindAssigned, decoded.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"shared"}`), &decoded))

	_, err = json.Marshal(models.ProjectKind(0))
	assert.Error(t, err)
	assert.Equal(t, "unknown", models.ProjectKind(9).String())
}

func TestBeforeCreate_AssignsIDs(t *testing.T) {
	user := &models.User{}
	require.NoError(t, user.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, user.ID)

	project := &models.Project{}
	require.NoError(t, project.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, project.ID)

	task := &models.Task{}
	require.NoError(t, task.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, task.ID)
}

func TestBeforeCreate_KeepsExistingID(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	project := &models.Project{ID: id}
	require.NoError(t, project.BeforeCreate(nil))
	assert.Equal(t, id, project.ID)
}

func TestProject_Members(t *testing.T) {
	bob := models.User{ID: uuid.Must(uuid.NewV4()), Name: "Bob"}
	carol := models.User{ID: uuid.Must(uuid.NewV4()), Name: "Carol"}
	project := models.Project{
		Memberships: []models.ProjectMembership{
			{UserID: bob.ID, User: bob},
			{UserID: carol.ID, User: carol},
		},
	}

	assert.Equal(t, []uuid.UUID{bob.ID, carol.ID}, project.MemberIDs())
	members := project.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "Bob", members[0].Name)
	assert.Equal(t, "Carol", members[1].Name)

	empty := models.Project{}
	assert.Empty(t, empty.MemberIDs())
	assert.Empty(t, empty.Members())
}

func TestUser_PasswordNeverSerialized(t *testing.T) {
	user := models.User{ID: uuid.Must(uuid.NewV4()), Name: "Alice", Email: "alice@example.com", Password: "hash"}
	payload, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "hash")
	assert.Contains(t, string(payload), `"email":"alice@example.com"`)
}

func TestUser_Summary(t *testing.T) {
	user := models.User{ID: uuid.Must(uuid.NewV4()), Name: "Alice", Email: "alice@example.com", Password: "hash"}
	summary := user.Summary()
	assert.Equal(t, models.UserSummary{ID: user.ID, Name: "Alice", Email: "alice@example.com"}, summary)
}
