package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/princekumarofficial/familybook/internal/types"
)

func (p *Postgres) CreateStory(ctx context.Context, story types.Story) (string, error) {
	var storyID string
	query := `
	INSERT INTO stories (account_id, author_id, content, object_key)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query, story.AccountID, story.AuthorID, story.Content, story.ObjectKey).Scan(&storyID)
	if err != nil {
		return "", fmt.Errorf("insert story: %w", err)
	}

	return storyID, nil
}

// GetStory returns the story even when soft-deleted; callers check DeletedAt.
func (p *Postgres) GetStory(ctx context.Context, storyID string) (types.Story, error) {
	var s types.Story
	var deletedAt sql.NullTime
	query := `
	SELECT s.id, s.content, s.object_key, s.account_id, s.author_id, u.username, s.created_at, s.deleted_at
	FROM stories s
	JOIN users u ON u.id = s.author_id
	WHERE s.id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, storyID).Scan(
		&s.ID, &s.Content, &s.ObjectKey, &s.AccountID, &s.AuthorID, &s.AuthorName, &s.CreatedAt, &deletedAt,
	)
	if err != nil {
		return types.Story{}, notFound(err)
	}
	s.DeletedAt = nullTime(deletedAt)

	return s, nil
}

// ListStories returns the account's visible stories, newest first.
func (p *Postgres) ListStories(ctx context.Context, accountID string) ([]types.Story, error) {
	query := `
	SELECT s.id, s.content, s.object_key, s.account_id, s.author_id, u.username, s.created_at
	FROM stories s
	JOIN users u ON u.id = s.author_id
	WHERE s.account_id = $1 AND s.deleted_at IS NULL
	ORDER BY s.created_at DESC, s.id DESC
	`

	rows, err := p.Db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := []types.Story{}
	for rows.Next() {
		var s types.Story
		err := rows.Scan(&s.ID, &s.Content, &s.ObjectKey, &s.AccountID, &s.AuthorID, &s.AuthorName, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return stories, nil
}
