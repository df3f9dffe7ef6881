package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApproval_StartReview(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)

	err := a.StartReview(now)

	assert.NoError(t, err)
	assert.Equal(t, ApprovalStatusInReview, a.Status)
	assert.Equal(t, now, *a.ReviewStartedAt)
	assert.Equal(t, now.Add(ReviewWindow), a.ReviewDeadline)
}

func TestApproval_StartReview_RefreshesOpenWindow(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.StartReview(now))

	later := now.Add(10 * time.Minute)
	err := a.StartReview(later)

	assert.NoError(t, err)
	assert.Equal(t, later.Add(ReviewWindow), a.ReviewDeadline)
}

func TestApproval_StartReview_Terminal(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.Approve(Actor{ID: 7, Username: "nils", Role: RolePlanner}, "", now))

	err := a.StartReview(now)

	var conflict *StateConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestApproval_Approve(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.StartReview(now))

	err := a.Approve(Actor{ID: 7, Username: "nils", Role: RolePlanner}, "checked manifest", now)

	assert.NoError(t, err)
	assert.Equal(t, ApprovalStatusApproved, a.Status)
	assert.Equal(t, "nils", a.ApprovedBy)
	assert.Equal(t, "nils", a.ReviewedBy)
	assert.Equal(t, "checked manifest", a.ReviewNotes)
	assert.NotNil(t, a.ApprovedAt)
}

func TestApproval_Approve_SystemActorLeavesApproverEmpty(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.StartReview(now))

	err := a.Approve(SystemActor(), "auto-approved: timeout", now)

	assert.NoError(t, err)
	assert.Equal(t, ApprovalStatusApproved, a.Status)
	assert.Empty(t, a.ApprovedBy)
}

func TestApproval_Approve_AlreadyResolved(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.Reject(Actor{Username: "ines", Role: RoleAccountant}, "incomplete", now))

	err := a.Approve(Actor{Username: "nils", Role: RolePlanner}, "", now)

	var conflict *StateConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, ApprovalStatusRejected, a.Status)
}

func TestApproval_Reject(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.StartReview(now))

	err := a.Reject(Actor{Username: "ines", Role: RoleAccountant}, "vehicle papers missing", now)

	assert.NoError(t, err)
	assert.Equal(t, ApprovalStatusRejected, a.Status)
	assert.Equal(t, "ines", a.RejectedBy)
	assert.Equal(t, "vehicle papers missing", a.RejectionReason)
}

func TestApproval_ForceReject_OpenReview(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.StartReview(now))

	forced := a.ForceReject(Actor{Username: "ines", Role: RoleAccountant}, "refund approved", now)

	assert.True(t, forced)
	assert.Equal(t, ApprovalStatusRejected, a.Status)
}

func TestApproval_ForceReject_AlreadyResolvedIsNoOp(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.NoError(t, a.StartReview(now))
	assert.NoError(t, a.Approve(Actor{Username: "nils", Role: RolePlanner}, "", now))

	forced := a.ForceReject(Actor{Username: "ines", Role: RoleAccountant}, "refund approved", now)

	assert.False(t, forced)
	assert.Equal(t, ApprovalStatusApproved, a.Status)
}

func TestApproval_ReviewOverdue(t *testing.T) {
	now := time.Now()
	a := NewApproval(1, now)
	assert.False(t, a.ReviewOverdue(now))

	assert.NoError(t, a.StartReview(now))
	assert.False(t, a.ReviewOverdue(now.Add(ReviewWindow-time.Second)))
	assert.True(t, a.ReviewOverdue(now.Add(ReviewWindow+time.Second)))

	assert.NoError(t, a.Approve(SystemActor(), "", now))
	assert.False(t, a.ReviewOverdue(now.Add(time.Hour)))
}
