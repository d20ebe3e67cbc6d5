package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTagClassifier_ClassifyTag(t *testing.T) {
	t.Parallel()

	classifier := &MockClassifier{}
	classifier.On("Classify", mock.Anything, "Go tutorial", []string{"tech", "music"}).Return("tech", nil).Once()

	tags := &memTagStore{tags: []string{"tech", "music"}}
	tc, err := NewTagClassifier(classifier, tags, discardLogger())
	require.NoError(t, err)

	tag, err := tc.ClassifyTag(context.Background(), "Go tutorial")
	require.NoError(t, err)
	assert.Equal(t, "tech", tag)

	tags.tags = nil
	_, err = tc.ClassifyTag(context.Background(), "Go tutorial")
	assert.ErrorIs(t, err, ErrNoTags)

	classifier.AssertExpectations(t)
}

func TestNewTagClassifier_NilDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewTagClassifier(nil, &memTagStore{}, discardLogger())
	assert.Error(t, err)
	_, err = NewTagClassifier(&MockClassifier{}, nil, discardLogger())
	assert.Error(t, err)
	_, err = NewTagClassifier(&MockClassifier{}, &memTagStore{}, nil)
	assert.Error(t, err)
}
