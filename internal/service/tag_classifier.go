package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/vidscribe/internal/store"
	"github.com/phrazzld/vidscribe/internal/task"
)

// Classifier chooses one of tags for a video title.
type Classifier interface {
	Classify(ctx context.Context, title string, tags []string) (string, error)
}

// TagClassifier classifies titles against the current tag list.
type TagClassifier struct {
	classifier Classifier
	tags       store.TagStore
	logger     *slog.Logger
}

// NewTagClassifier creates a TagClassifier.
func NewTagClassifier(classifier Classifier, tags store.TagStore, logger *slog.Logger) (*TagClassifier, error) {
	if classifier == nil {
		return nil, nilDependency("tag_classifier", "classifier")
	}
	if tags == nil {
		return nil, nilDependency("tag_classifier", "tags")
	}
	if logger == nil {
		return nil, nilDependency("tag_classifier", "logger")
	}

	return &TagClassifier{
		classifier: classifier,
		tags:       tags,
		logger:     logger.With("component", "tag_classifier"),
	}, nil
}

// ClassifyTag returns the tag chosen for title. It fails with ErrNoTags when
// the tag list is empty.
func (c *TagClassifier) ClassifyTag(ctx context.Context, title string) (string, error) {
	tags, err := c.tags.ListTags(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load tags: %w", err)
	}
	return c.classifyWith(ctx, title, tags)
}

func (c *TagClassifier) classifyWith(ctx context.Context, title string, tags []string) (string, error) {
	if len(tags) == 0 {
		return "", ErrNoTags
	}

	tag, err := c.classifier.Classify(ctx, title, tags)
	if err != nil {
		return "", err
	}
	c.logger.Debug("classified title", "title", title, "tag", tag)
	return tag, nil
}

var _ task.TagClassifier = (*TagClassifier)(nil)
