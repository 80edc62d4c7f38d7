package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDriver accepts every connection and statement.
type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{}, nil }

type fakeConn struct{}

func (fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (fakeConn) Close() error                        { return nil }
func (fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }

var registerFake sync.Once

func useFakeDriver(t *testing.T, open func(name, dsn string) (*sql.DB, error)) {
	t.Helper()
	registerFake.Do(func() { sql.Register("dbfake", fakeDriver{}) })
	if open == nil {
		open = func(_, dsn string) (*sql.DB, error) { return sql.Open("dbfake", dsn) }
	}
	prev := openDB
	openDB = open
	resetShared()
	t.Cleanup(func() {
		openDB = prev
		resetShared()
	})
}

func resetShared() {
	shared.mu.Lock()
	shared.pool = nil
	shared.mu.Unlock()
}

func TestDefaultOptionsByProfile(t *testing.T) {
	if got := DefaultOptions(ProfileLambda).MaxOpenConns; got != 2 {
		t.Fatalf("lambda pool: expected 2, got %d", got)
	}
	if got := DefaultOptions(ProfileMigrate).MaxOpenConns; got != 1 {
		t.Fatalf("migrate pool: expected 1, got %d", got)
	}
	if DefaultOptions("unknown") != DefaultOptions(ProfileServer) {
		t.Fatalf("unknown profile should use server defaults")
	}
}

func TestRuntimeProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if RuntimeProfile() != ProfileServer {
		t.Fatalf("expected server profile")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "mindspace-api")
	if RuntimeProfile() != ProfileLambda {
		t.Fatalf("expected lambda profile")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "bogus")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	defaults := DefaultOptions(ProfileServer)
	opts := OptionsFromEnv(defaults)

	want := defaults
	want.MaxOpenConns = 7
	want.ConnMaxLifetime = 20 * time.Minute
	want.PingTimeout = time.Second
	if opts != want {
		t.Fatalf("OptionsFromEnv = %+v, want %+v", opts, want)
	}
}

func TestConnectAppliesPoolSize(t *testing.T) {
	useFakeDriver(t, nil)

	pool, err := Connect(context.Background(), "postgres://fake", Options{MaxOpenConns: 3})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer pool.Close()

	if got := PoolStats(pool)["max_open"]; got != 3 {
		t.Fatalf("expected max_open 3, got %v", got)
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultOptions(ProfileServer)); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestSharedReturnsOnePoolToConcurrentCallers(t *testing.T) {
	var opens int32
	useFakeDriver(t, func(_, dsn string) (*sql.DB, error) {
		atomic.AddInt32(&opens, 1)
		return sql.Open("dbfake", dsn)
	})

	const callers = 8
	pools := make([]*sql.DB, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pool, err := Shared(context.Background(), "postgres://fake", DefaultOptions(ProfileLambda))
			if err != nil {
				t.Errorf("Shared: %v", err)
				return
			}
			pools[i] = pool
		}(i)
	}
	wg.Wait()

	if opens != 1 {
		t.Fatalf("expected one open, got %d", opens)
	}
	for i := 1; i < callers; i++ {
		if pools[i] != pools[0] {
			t.Fatalf("caller %d got a different pool", i)
		}
	}
}

func TestSharedRetriesAfterFailure(t *testing.T) {
	var opens int32
	useFakeDriver(t, func(_, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&opens, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		return sql.Open("dbfake", dsn)
	})

	if _, err := Shared(context.Background(), "postgres://fake", DefaultOptions(ProfileLambda)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	pool, err := Shared(context.Background(), "postgres://fake", DefaultOptions(ProfileLambda))
	if err != nil || pool == nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}
