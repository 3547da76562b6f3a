package postgres

import (
	"context"
	"fmt"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
	"github.com/princekumarofficial/familybook/internal/types/users"
)

func (p *Postgres) CreateUser(ctx context.Context, email, username, passwordHash string) (string, error) {
	var userID string
	query := `
	INSERT INTO users (email, username, password)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query, email, username, passwordHash).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", storage.ErrAlreadyExists
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	return userID, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	var u users.User
	query := `
	SELECT id, email, username, password, created_at FROM users WHERE email = $1
	`

	err := p.Db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.CreatedAt)
	if err != nil {
		return users.User{}, notFound(err)
	}

	return u, nil
}

func (p *Postgres) GetUserByID(ctx context.Context, userID string) (users.User, error) {
	var u users.User
	query := `
	SELECT id, email, username, password, created_at FROM users WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.CreatedAt)
	if err != nil {
		return users.User{}, notFound(err)
	}

	return u, nil
}

// CreateAccount inserts the account and its owner membership in one transaction.
func (p *Postgres) CreateAccount(ctx context.Context, ownerID, title, inviteCode string) (types.Account, error) {
	tx, err := p.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Account{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	acc := types.Account{OwnerID: ownerID, Title: title, InviteCode: inviteCode}
	err = tx.QueryRowContext(ctx, `
	INSERT INTO accounts (owner_id, title, invite_code)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`, ownerID, title, inviteCode).Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, storage.ErrAlreadyExists
		}
		return types.Account{}, fmt.Errorf("insert account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO account_members (account_id, user_id, role, can_add, can_edit, can_delete)
	VALUES ($1, $2, 'owner', TRUE, TRUE, TRUE)
	`, acc.ID, ownerID)
	if err != nil {
		return types.Account{}, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Account{}, fmt.Errorf("commit tx: %w", err)
	}

	return acc, nil
}

func (p *Postgres) GetAccountByOwner(ctx context.Context, ownerID string) (types.Account, error) {
	var acc types.Account
	query := `
	SELECT id, owner_id, title, invite_code, created_at
	FROM accounts
	WHERE owner_id = $1 AND deleted_at IS NULL
	ORDER BY created_at
	LIMIT 1
	`

	err := p.Db.QueryRowContext(ctx, query, ownerID).Scan(&acc.ID, &acc.OwnerID, &acc.Title, &acc.InviteCode, &acc.CreatedAt)
	if err != nil {
		return types.Account{}, notFound(err)
	}

	return acc, nil
}

func (p *Postgres) GetAccountByInviteCode(ctx context.Context, code string) (types.Account, error) {
	var acc types.Account
	query := `
	SELECT id, owner_id, title, created_at
	FROM accounts
	WHERE invite_code = $1 AND deleted_at IS NULL
	`

	err := p.Db.QueryRowContext(ctx, query, code).Scan(&acc.ID, &acc.OwnerID, &acc.Title, &acc.CreatedAt)
	if err != nil {
		return types.Account{}, notFound(err)
	}

	return acc, nil
}

// ListAccountsForUser returns every account the user belongs to, pending included.
// Invite codes are only filled in for accounts the user owns.
func (p *Postgres) ListAccountsForUser(ctx context.Context, userID string) ([]types.Account, error) {
	query := `
	SELECT a.id, a.owner_id, a.title,
		CASE WHEN a.owner_id = $1 THEN a.invite_code ELSE '' END,
		a.created_at
	FROM accounts a
	JOIN account_members m ON m.account_id = a.id
	WHERE m.user_id = $1 AND a.deleted_at IS NULL
	ORDER BY a.created_at
	`

	rows, err := p.Db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []types.Account{}
	for rows.Next() {
		var acc types.Account
		if err := rows.Scan(&acc.ID, &acc.OwnerID, &acc.Title, &acc.InviteCode, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

func (p *Postgres) AddMember(ctx context.Context, accountID, userID string, role types.Role, perms types.Permissions) error {
	query := `
	INSERT INTO account_members (account_id, user_id, role, can_add, can_edit, can_delete)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.Db.ExecContext(ctx, query, accountID, userID, role, perms.CanAdd, perms.CanEdit, perms.CanDelete)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

func (p *Postgres) GetMember(ctx context.Context, accountID, userID string) (types.Member, error) {
	var m types.Member
	query := `
	SELECT m.account_id, m.user_id, u.username, m.role, m.can_add, m.can_edit, m.can_delete, m.joined_at
	FROM account_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.account_id = $1 AND m.user_id = $2
	`

	err := p.Db.QueryRowContext(ctx, query, accountID, userID).Scan(
		&m.AccountID, &m.UserID, &m.Username, &m.Role,
		&m.Permissions.CanAdd, &m.Permissions.CanEdit, &m.Permissions.CanDelete, &m.JoinedAt,
	)
	if err != nil {
		return types.Member{}, notFound(err)
	}

	return m, nil
}

func (p *Postgres) ListMembers(ctx context.Context, accountID string) ([]types.Member, error) {
	query := `
	SELECT m.account_id, m.user_id, u.username, m.role, m.can_add, m.can_edit, m.can_delete, m.joined_at
	FROM account_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.account_id = $1
	ORDER BY m.joined_at, m.user_id
	`

	rows, err := p.Db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []types.Member{}
	for rows.Next() {
		var m types.Member
		err := rows.Scan(
			&m.AccountID, &m.UserID, &m.Username, &m.Role,
			&m.Permissions.CanAdd, &m.Permissions.CanEdit, &m.Permissions.CanDelete, &m.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// ListMemberUserIDs returns the users that can read the account. Pending
// members are left out.
func (p *Postgres) ListMemberUserIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := p.Db.QueryContext(ctx, `SELECT user_id FROM account_members WHERE account_id = $1 AND role <> 'pending'`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (p *Postgres) UpdateMember(ctx context.Context, accountID, userID string, role types.Role, perms types.Permissions) error {
	query := `
	UPDATE account_members
	SET role = $3, can_add = $4, can_edit = $5, can_delete = $6
	WHERE account_id = $1 AND user_id = $2
	`

	res, err := p.Db.ExecContext(ctx, query, accountID, userID, role, perms.CanAdd, perms.CanEdit, perms.CanDelete)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}
