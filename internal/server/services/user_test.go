package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/cryptox"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/server/auth"
	"github.com/dmitrijs2005/synqlikk/internal/server/config"
	sm "github.com/dmitrijs2005/synqlikk/internal/server/models"
)

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg, logging.Nop())
}

func storedUser(id, password string) *sm.User {
	salt := cryptox.NewSalt()
	return &sm.User{ID: id, Username: "alice", Salt: salt, PasswordHash: cryptox.HashPassword([]byte(password), salt)}
}

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	u := &fakeUsersRepo{createOut: &sm.User{ID: "42", Username: "alice"}}
	r := &fakeRefreshRepo{}
	s := newUserService(t, db, &fakeRepoManager{u: u, r: r})

	pair, err := s.Register(context.Background(), "  alice ", "correct horse")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if pair.UserID != "42" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
	if u.created.Username != "alice" {
		t.Fatalf("username not trimmed: %q", u.created.Username)
	}
	if !cryptox.VerifyPassword([]byte("correct horse"), u.created.Salt, u.created.PasswordHash) {
		t.Fatal("stored hash does not verify")
	}
	if len(r.created) != 1 || r.created[0].UserID != "42" || r.created[0].Token != pair.RefreshToken {
		t.Fatalf("refresh token not stored: %+v", r.created)
	}
	if got, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k")); err != nil || got != "42" {
		t.Fatalf("access token: got (%q, %v)", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_Errors(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		repoErr  error
		tx       bool
		want     error
		wantText string
	}{
		{name: "empty username", username: " ", password: "secret1", want: common.ErrorValidation},
		{name: "short password", username: "bob", password: "123", want: common.ErrorValidation},
		{name: "duplicate", username: "bob", password: "secret1", repoErr: common.ErrorAlreadyExists, tx: true, want: common.ErrorAlreadyExists},
		{name: "db failure", username: "bob", password: "secret1", repoErr: errBoom{}, tx: true, wantText: `error creating user: .*boom`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			if c.tx {
				mock.ExpectBegin()
				mock.ExpectRollback()
			}
			s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: c.repoErr}, r: &fakeRefreshRepo{}})

			_, err := s.Register(context.Background(), c.username, c.password)
			if c.want != nil && !errors.Is(err, c.want) {
				t.Fatalf("want %v, got %v", c.want, err)
			}
			if c.wantText != "" && (err == nil || !regexp.MustCompile(c.wantText).MatchString(err.Error())) {
				t.Fatalf("want %q, got %v", c.wantText, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("sql expectations: %v", err)
			}
		})
	}
}

func TestLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)

	sNF := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{}})
	if _, err := sNF.Login(context.Background(), "ghost", "x"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("notfound → unauthorized, got %v", err)
	}

	sIE := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}, r: &fakeRefreshRepo{}})
	if _, err := sIE.Login(context.Background(), "u", "x"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("internal → ErrorInternal, got %v", err)
	}

	sWP := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: storedUser("u1", "right-one")}, r: &fakeRefreshRepo{}})
	if _, err := sWP.Login(context.Background(), "alice", "wrong-one"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("wrong password → unauthorized, got %v", err)
	}

	sTok := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: storedUser("u1", "right-one")}, r: &fakeRefreshRepo{createErr: errBoom{}}})
	if _, err := sTok.Login(context.Background(), "alice", "right-one"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("token store failure → ErrorInternal, got %v", err)
	}

	sOK := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: storedUser("u1", "right-one")}, r: &fakeRefreshRepo{}})
	pair, err := sOK.Login(context.Background(), "alice", "right-one")
	if err != nil || pair.UserID != "u1" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Login success: pair=%+v err=%v", pair, err)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	r := &fakeRefreshRepo{findOut: &sm.RefreshToken{UserID: "u1", Token: "old", Expires: time.Now().Add(10 * time.Minute)}}
	s := newUserService(t, db, &fakeRepoManager{r: r})

	pair, err := s.RefreshToken(context.Background(), "old")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.UserID != "u1" || pair.RefreshToken == "old" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
	if len(r.deleted) != 1 || r.deleted[0] != "old" {
		t.Fatalf("old token not consumed: %v", r.deleted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefreshToken_Failures(t *testing.T) {
	valid := &sm.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}

	cases := []struct {
		name     string
		repo     *fakeRefreshRepo
		expect   func(sqlmock.Sqlmock)
		want     error
		wantText string
	}{
		{
			name: "unknown token",
			repo: &fakeRefreshRepo{findErr: common.ErrorNotFound},
			want: common.ErrorUnauthorized,
		},
		{
			name:     "lookup error",
			repo:     &fakeRefreshRepo{findErr: errBoom{}},
			wantText: `error searching refresh token: .*boom`,
		},
		{
			name: "expired",
			repo: &fakeRefreshRepo{findOut: &sm.RefreshToken{UserID: "u1", Expires: time.Now().Add(-time.Minute)}},
			want: common.ErrRefreshTokenExpired,
		},
		{
			name:   "already consumed",
			repo:   &fakeRefreshRepo{findOut: valid, delErr: common.ErrorNotFound},
			expect: func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectRollback() },
			want:   common.ErrorUnauthorized,
		},
		{
			name:     "delete error",
			repo:     &fakeRefreshRepo{findOut: valid, delErr: errBoom{}},
			expect:   func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectRollback() },
			wantText: `error deleting refresh token: .*boom`,
		},
		{
			name:   "new token not stored",
			repo:   &fakeRefreshRepo{findOut: valid, createErr: errBoom{}},
			expect: func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectRollback() },
			want:   common.ErrorInternal,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			if c.expect != nil {
				c.expect(mock)
			}
			s := newUserService(t, db, &fakeRepoManager{r: c.repo})

			_, err := s.RefreshToken(context.Background(), "tok")
			if c.want != nil && !errors.Is(err, c.want) {
				t.Fatalf("want %v, got %v", c.want, err)
			}
			if c.wantText != "" && (err == nil || !regexp.MustCompile(c.wantText).MatchString(err.Error())) {
				t.Fatalf("want %q, got %v", c.wantText, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("sql expectations: %v", err)
			}
		})
	}
}
