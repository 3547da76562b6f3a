package postgres

import (
	"context"
	"fmt"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
)

func (p *Postgres) CreateAlbum(ctx context.Context, accountID, title, createdBy string) (string, error) {
	var albumID string
	query := `
	INSERT INTO albums (account_id, title, created_by)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	if err := p.Db.QueryRowContext(ctx, query, accountID, title, createdBy).Scan(&albumID); err != nil {
		return "", fmt.Errorf("insert album: %w", err)
	}

	return albumID, nil
}

func (p *Postgres) GetAlbum(ctx context.Context, albumID string) (types.Album, error) {
	var a types.Album
	query := `
	SELECT id, account_id, title, created_by, photos_count, created_at
	FROM active_albums
	WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, albumID).Scan(&a.ID, &a.AccountID, &a.Title, &a.CreatedBy, &a.PhotosCount, &a.CreatedAt)
	if err != nil {
		return types.Album{}, notFound(err)
	}

	return a, nil
}

func (p *Postgres) ListActiveAlbums(ctx context.Context, accountID string) ([]types.Album, error) {
	query := `
	SELECT id, account_id, title, created_by, photos_count, created_at
	FROM active_albums
	WHERE account_id = $1
	ORDER BY created_at DESC, id DESC
	`

	rows, err := p.Db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	albums := []types.Album{}
	for rows.Next() {
		var a types.Album
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Title, &a.CreatedBy, &a.PhotosCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, a)
	}

	return albums, rows.Err()
}

// RenameAlbum returns storage.ErrNotFound when no active album has albumID.
func (p *Postgres) RenameAlbum(ctx context.Context, albumID, title string) error {
	res, err := p.Db.ExecContext(ctx, `
	UPDATE albums SET title = $2
	WHERE id = $1 AND deleted_at IS NULL
	`, albumID, title)
	if err != nil {
		return fmt.Errorf("rename album: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename album rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *Postgres) CreatePhoto(ctx context.Context, photo types.Photo) (string, error) {
	var photoID string
	query := `
	INSERT INTO photos (album_id, account_id, author_id, url, object_key)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query, photo.AlbumID, photo.AccountID, photo.AuthorID, photo.URL, photo.ObjectKey).Scan(&photoID)
	if err != nil {
		return "", fmt.Errorf("insert photo: %w", err)
	}

	return photoID, nil
}

func (p *Postgres) GetPhoto(ctx context.Context, photoID string) (types.Photo, error) {
	var ph types.Photo
	query := `
	SELECT id, album_id, account_id, author_id, username, url, object_key, likes_count, created_at
	FROM photos_with_likes
	WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, photoID).Scan(
		&ph.ID, &ph.AlbumID, &ph.AccountID, &ph.AuthorID, &ph.AuthorName,
		&ph.URL, &ph.ObjectKey, &ph.LikesCount, &ph.CreatedAt,
	)
	if err != nil {
		return types.Photo{}, notFound(err)
	}

	return ph, nil
}

func (p *Postgres) ListPhotos(ctx context.Context, albumID string, sort types.PhotoSort) ([]types.Photo, error) {
	order := "created_at DESC, id DESC"
	if sort == types.SortByUsername {
		order = "username ASC, created_at DESC"
	}

	query := `
	SELECT id, album_id, account_id, author_id, username, url, object_key, likes_count, created_at
	FROM photos_with_likes
	WHERE album_id = $1
	ORDER BY ` + order

	rows, err := p.Db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := []types.Photo{}
	for rows.Next() {
		var ph types.Photo
		err := rows.Scan(
			&ph.ID, &ph.AlbumID, &ph.AccountID, &ph.AuthorID, &ph.AuthorName,
			&ph.URL, &ph.ObjectKey, &ph.LikesCount, &ph.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, ph)
	}

	return photos, rows.Err()
}

// ToggleLike removes the user's like if present, otherwise adds one.
// It reports whether the photo is liked afterwards.
func (p *Postgres) ToggleLike(ctx context.Context, photoID, userID string) (bool, error) {
	res, err := p.Db.ExecContext(ctx, `DELETE FROM photo_likes WHERE photo_id = $1 AND user_id = $2`, photoID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete like rows affected: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	_, err = p.Db.ExecContext(ctx, `
	INSERT INTO photo_likes (photo_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (photo_id, user_id) DO NOTHING
	`, photoID, userID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}

func (p *Postgres) AddComment(ctx context.Context, photoID, userID, text string) (string, error) {
	var commentID string
	query := `
	INSERT INTO photo_comments (photo_id, user_id, text)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	if err := p.Db.QueryRowContext(ctx, query, photoID, userID, text).Scan(&commentID); err != nil {
		return "", fmt.Errorf("insert comment: %w", err)
	}

	return commentID, nil
}

func (p *Postgres) GetComment(ctx context.Context, commentID string) (types.Comment, error) {
	var c types.Comment
	query := `
	SELECT id, photo_id, user_id, username, text, created_at
	FROM comments_with_users
	WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, commentID).Scan(&c.ID, &c.PhotoID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt)
	if err != nil {
		return types.Comment{}, notFound(err)
	}

	return c, nil
}

func (p *Postgres) ListComments(ctx context.Context, photoID string) ([]types.Comment, error) {
	query := `
	SELECT id, photo_id, user_id, username, text, created_at
	FROM comments_with_users
	WHERE photo_id = $1
	ORDER BY created_at ASC, id ASC
	`

	rows, err := p.Db.QueryContext(ctx, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []types.Comment{}
	for rows.Next() {
		var c types.Comment
		if err := rows.Scan(&c.ID, &c.PhotoID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}
