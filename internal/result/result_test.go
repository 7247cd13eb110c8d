package result

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_SetSemanticsAndDeleteWins(t *testing.T) {
	steps := []*StepResult{
		{StepName: "a", Status: StatusCompleted, FilesCreated: []string{"x.txt", "y.txt"}},
		{StepName: "b", Status: StatusCompleted, FilesModified: []string{"y.txt"}},
		{StepName: "c", Status: StatusCompleted, FilesDeleted: []string{"x.txt"}},
	}
	r := Aggregate(steps, nil, Metadata{StartedAt: time.Now(), EndedAt: time.Now()})
	assert.ElementsMatch(t, []string{"y.txt"}, r.FilesCreated)
	assert.ElementsMatch(t, []string{"y.txt"}, r.FilesModified)
	assert.ElementsMatch(t, []string{"x.txt"}, r.FilesDeleted)
	assert.True(t, r.Success)
}

func TestAggregate_FailedStepAppearsExactlyOnceInErrors(t *testing.T) {
	steps := []*StepResult{
		{StepName: "a", Status: StatusFailed, Error: &StepError{Kind: "ToolError", Message: "boom"}},
		{StepName: "b", Status: StatusCompleted},
	}
	r := Aggregate(steps, nil, Metadata{})
	assert.False(t, r.Success)
	assert.Equal(t, []string{"a: boom"}, r.Errors)
	assert.Equal(t, 1, r.Metadata.FailedSteps)
	assert.Equal(t, 1, r.Metadata.CompletedSteps)
}

func TestAggregate_DeduplicatesWithinAList(t *testing.T) {
	steps := []*StepResult{
		{StepName: "a", Status: StatusCompleted, FilesCreated: []string{"x.txt"}},
		{StepName: "b", Status: StatusCompleted, FilesCreated: []string{"x.txt"}},
	}
	r := Aggregate(steps, nil, Metadata{})
	assert.Equal(t, []string{"x.txt"}, r.FilesCreated)
}
