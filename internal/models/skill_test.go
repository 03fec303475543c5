package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name   string
		rating int
		want   SkillBucket
	}{
		{name: "zero", rating: 0, want: SkillBucketBeginner},
		{name: "top_of_beginner", rating: 3, want: SkillBucketBeginner},
		{name: "intermediate_floor", rating: 4, want: SkillBucketIntermediate},
		{name: "top_of_intermediate", rating: 6, want: SkillBucketIntermediate},
		{name: "advanced_floor", rating: 7, want: SkillBucketAdvanced},
		{name: "expert_floor", rating: 9, want: SkillBucketExpert},
		{name: "above_scale", rating: 15, want: SkillBucketExpert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketFor(tt.rating))
		})
	}
}

func TestSessionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, SessionStatusOpen.CanTransitionTo(SessionStatusActive))
	assert.True(t, SessionStatusOpen.CanTransitionTo(SessionStatusClosed))
	assert.True(t, SessionStatusActive.CanTransitionTo(SessionStatusClosed))

	assert.False(t, SessionStatusActive.CanTransitionTo(SessionStatusOpen))
	assert.False(t, SessionStatusActive.CanTransitionTo(SessionStatusActive))
	assert.False(t, SessionStatusClosed.CanTransitionTo(SessionStatusActive))
	assert.False(t, SessionStatusClosed.CanTransitionTo(SessionStatusOpen))
}
