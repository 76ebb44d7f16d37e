package client_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/satishbabariya/sqlkit/query/builder"
	"github.com/satishbabariya/sqlkit/query/processor"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

// e2eTarget is one live database. Targets without a URL are skipped.
type e2eTarget struct {
	driver string
	url    string
	ddl    string
}

func e2eTargets(t *testing.T) []e2eTarget {
	return []e2eTarget{
		{
			driver: "mysql",
			url:    os.Getenv("SQLKIT_TEST_MYSQL_URL"),
			ddl:    "create table sk_e2e_users (id bigint auto_increment primary key, name varchar(64) not null unique, votes int not null default 0)",
		},
		{
			driver: "postgres",
			url:    os.Getenv("SQLKIT_TEST_POSTGRES_URL"),
			ddl:    "create table sk_e2e_users (id bigserial primary key, name varchar(64) not null unique, votes int not null default 0)",
		},
		{
			driver: "pgx",
			url:    os.Getenv("SQLKIT_TEST_POSTGRES_URL"),
			ddl:    "create table sk_e2e_users (id bigserial primary key, name varchar(64) not null unique, votes int not null default 0)",
		},
		{
			driver: "sqlite3",
			url:    filepath.Join(t.TempDir(), "e2e.db"),
			ddl:    "create table sk_e2e_users (id integer primary key autoincrement, name text not null unique, votes integer not null default 0)",
		},
	}
}

type e2eSuite struct {
	suite.Suite
	target e2eTarget
	ctx    context.Context
	c      *client.Client
}

func TestE2E(t *testing.T) {
	for _, target := range e2eTargets(t) {
		t.Run(target.driver, func(t *testing.T) {
			if target.url == "" {
				t.Skipf("no database configured for %s", target.driver)
			}
			suite.Run(t, &e2eSuite{target: target})
		})
	}
}

func (s *e2eSuite) SetupSuite() {
	s.ctx = context.Background()
	c, err := client.Open(s.target.driver, s.target.url)
	s.Require().NoError(err)
	if err := c.Ping(s.ctx); err != nil {
		_ = c.Close()
		// mattn/go-sqlite3 built without cgo cannot connect
		s.T().Skipf("%s unavailable: %v", s.target.driver, err)
	}
	s.c = c
}

func (s *e2eSuite) TearDownSuite() {
	if s.c == nil {
		return
	}
	_, _ = s.c.Exec(s.ctx, "drop table if exists sk_e2e_users", nil)
	s.Require().NoError(s.c.Close())
}

func (s *e2eSuite) SetupTest() {
	_, err := s.c.Exec(s.ctx, "drop table if exists sk_e2e_users", nil)
	s.Require().NoError(err)
	_, err = s.c.Exec(s.ctx, s.target.ddl, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.users().Insert(s.ctx,
		map[string]interface{}{"name": "ada", "votes": 3},
		map[string]interface{}{"name": "bob", "votes": 1},
	))
}

func (s *e2eSuite) users() *builder.Builder {
	return s.c.Table("sk_e2e_users")
}

func (s *e2eSuite) votes(name string) int64 {
	v, err := s.users().Where("name", name).Value(s.ctx, "votes")
	s.Require().NoError(err)
	return processor.Normalize(v).(int64)
}

func (s *e2eSuite) TestReads() {
	rows, err := s.users().Where("votes", ">", 0).OrderByDesc("votes").Get(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("ada", rows[0]["name"])

	n, err := s.users().WhereIn("name", []string{"ada", "zed"}).Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	ok, err := s.users().Where("name", "bob").Exists(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *e2eSuite) TestInsertGetID() {
	id, err := s.users().InsertGetID(s.ctx, map[string]interface{}{"name": "cy", "votes": 0})
	s.Require().NoError(err)
	s.Equal(int64(3), processor.Normalize(id))
}

func (s *e2eSuite) TestUpdates() {
	n, err := s.users().Where("name", "bob").Increment(s.ctx, "votes", 4)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.Equal(int64(5), s.votes("bob"))

	_, err = s.users().Upsert(s.ctx, []map[string]interface{}{
		{"name": "ada", "votes": 10},
		{"name": "dee", "votes": 2},
	}, []string{"name"}, "votes")
	s.Require().NoError(err)
	s.Equal(int64(10), s.votes("ada"))
	s.Equal(int64(2), s.votes("dee"))

	n, err = s.users().Where("votes", "<", 5).Delete(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *e2eSuite) TestSavepoints() {
	errInner := errors.New("inner")
	err := s.c.Transaction(s.ctx, func(tx *client.Tx) error {
		if _, err := tx.Table("sk_e2e_users").Where("name", "ada").Update(s.ctx, map[string]interface{}{"votes": 7}); err != nil {
			return err
		}
		inner := tx.Transaction(s.ctx, func(tx *client.Tx) error {
			if _, err := tx.Table("sk_e2e_users").Where("name", "bob").Update(s.ctx, map[string]interface{}{"votes": 9}); err != nil {
				return err
			}
			return errInner
		})
		s.ErrorIs(inner, errInner)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(int64(7), s.votes("ada"))
	s.Equal(int64(1), s.votes("bob"))
}
