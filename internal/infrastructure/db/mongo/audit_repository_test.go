package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

func TestAuditRepository_InsertEvent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewAuditRepository(mt.DB)
		err := repo.InsertEvent(context.Background(), &domain.AuditEvent{
			Type:      domain.AuditLoginSuccess,
			UserUUID:  "u-1",
			IPAddress: "10.0.0.1",
			Success:   true,
			At:        time.Now(),
		})
		if err != nil {
			mt.Fatalf("InsertEvent: %v", err)
		}

		started := mt.GetStartedEvent()
		if started == nil || started.CommandName != "insert" {
			mt.Fatalf("expected an insert command, got %+v", started)
		}
		if coll, _ := started.Command.Lookup("insert").StringValueOK(); coll != AuditCollection {
			mt.Fatalf("collection = %q, want %q", coll, AuditCollection)
		}
	})

	mt.Run("write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key",
		}))

		repo := NewAuditRepository(mt.DB)
		err := repo.InsertEvent(context.Background(), &domain.AuditEvent{Type: domain.AuditLogout, At: time.Now()})
		if !mongo.IsDuplicateKeyError(err) {
			mt.Fatalf("expected duplicate key error, got %v", err)
		}
	})
}

func TestAuditRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates user and type indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := NewAuditRepository(mt.DB).EnsureIndexes(context.Background()); err != nil {
			mt.Fatalf("EnsureIndexes: %v", err)
		}

		started := mt.GetStartedEvent()
		if started == nil || started.CommandName != "createIndexes" {
			mt.Fatalf("expected createIndexes, got %+v", started)
		}
		if coll, _ := started.Command.Lookup("createIndexes").StringValueOK(); coll != AuditCollection {
			mt.Fatalf("collection = %q", coll)
		}
		values, err := started.Command.Lookup("indexes").Array().Values()
		if err != nil {
			mt.Fatalf("indexes: %v", err)
		}
		names := map[string]bool{}
		for _, v := range values {
			name, _ := v.Document().Lookup("name").StringValueOK()
			names[name] = true
		}
		if !names["user_uuid_at"] || !names["type_at"] {
			mt.Fatalf("indexes = %v", names)
		}
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		if err := NewAuditRepository(mt.DB).EnsureIndexes(context.Background()); err == nil {
			mt.Fatal("expected error")
		}
	})
}

func TestConfig_ClientOptions(t *testing.T) {
	opts := Config{URI: "mongodb://localhost:27017"}.clientOptions()
	if *opts.MaxPoolSize != defaultPoolSize || *opts.ServerSelectionTimeout != defaultTimeout {
		t.Fatalf("pool=%d selection=%s", *opts.MaxPoolSize, *opts.ServerSelectionTimeout)
	}
	if *opts.AppName != appName {
		t.Fatalf("app name = %q", *opts.AppName)
	}

	opts = Config{URI: "mongodb://localhost:27017", MaxPoolSize: 5, Timeout: time.Second}.clientOptions()
	if *opts.MaxPoolSize != 5 || *opts.ConnectTimeout != time.Second {
		t.Fatalf("pool=%d connect=%s", *opts.MaxPoolSize, *opts.ConnectTimeout)
	}
}
