package main

import (
	"chat-vault/domain"
	"chat-vault/internal"
	"chat-vault/keyring"
	"chat-vault/repositories"
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

func runSeedUser(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("seed-user", flag.ContinueOnError)
	var user domain.User
	fs.StringVar(&user.ID, "id", "", "user id")
	fs.StringVar(&user.DisplayName, "name", "", "display name")
	fs.StringVar(&user.Username, "username", "", "username")
	fs.StringVar(&user.Role, "role", "", "role")
	fs.StringVar(&user.Department, "department", "", "department")
	fs.StringVar(&user.Email, "email", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cli.withStore(func(db *badger.DB, _ *slog.Logger) error {
		if err := repositories.NewUserRepository(db).Save(ctx, user); err != nil {
			return err
		}
		cli.success("User %s saved", user.ID)
		return nil
	})
}

func runSeedConversation(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("seed-conversation", flag.ContinueOnError)
	id := fs.String("id", "", "conversation id")
	kind := fs.String("kind", string(domain.KindDirect), "direct or group")
	participants := fs.String("participants", "", "comma separated user ids")
	removed := fs.String("removed", "", "comma separated user ids the conversation is removed for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	conv := domain.Conversation{
		ID:           *id,
		Kind:         domain.ConversationKind(*kind),
		Participants: splitList(*participants),
		RemovedFor:   splitList(*removed),
	}
	return cli.withStore(func(db *badger.DB, log *slog.Logger) error {
		if err := repositories.NewConversationRepository(db, log).Save(ctx, conv); err != nil {
			return err
		}
		cli.success("Conversation %s saved with %d participants", conv.ID, len(conv.Participants))
		return nil
	})
}

func runRotateKey(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("rotate-key", flag.ContinueOnError)
	conv := fs.String("conv", "", "conversation id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *conv == "" {
		return fmt.Errorf("-conv is required")
	}
	return cli.withKeyring(func(keys *keyring.Keyring) error {
		key, err := keys.Rotate(ctx, *conv)
		if err != nil {
			return err
		}
		cli.success("Conversation %s now encrypts with key version %d", *conv, key.Version)
		return nil
	})
}

func runRetireKey(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("retire-key", flag.ContinueOnError)
	conv := fs.String("conv", "", "conversation id")
	version := fs.Uint("version", 0, "key version to retire")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *conv == "" || *version == 0 {
		return fmt.Errorf("-conv and -version are required")
	}
	return cli.withKeyring(func(keys *keyring.Keyring) error {
		if err := keys.Retire(ctx, *conv, uint32(*version)); err != nil {
			return err
		}
		cli.success("Key version %d of %s retired, its messages can no longer be read", *version, *conv)
		return nil
	})
}

// runInspect lists store records the way the chatd debug inspector does.
func runInspect(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "key prefix to scan, e.g. msg:c1:")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cli.withStore(func(db *badger.DB, _ *slog.Logger) error {
		table := cli.table([]string{"Key", "Type", "Detail"})
		count := 0
		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			prefixBytes := []byte(*prefix)
			for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				key := string(item.Key())
				row := internal.InspectMapper(key, val)
				table.Append([]string{key, row.Type, row.Detail})
				count++
			}
			return nil
		})
		if err != nil {
			return err
		}
		table.Render()
		fmt.Fprintf(cli.out, "\n%s %d records\n", cli.header("Total:"), count)
		return nil
	})
}

func (c *CLI) withStore(fn func(db *badger.DB, log *slog.Logger) error) error {
	if c.Config.BadgerFilepath == "" {
		return fmt.Errorf("BADGER_FILEPATH is required for offline commands")
	}
	db, err := badger.Open(badger.DefaultOptions(c.Config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("open store (is chatd still running?): %w", err)
	}
	defer db.Close()
	return fn(db, logs.GetLoggerFromString("WARN"))
}

func (c *CLI) withKeyring(fn func(keys *keyring.Keyring) error) error {
	masterKey, err := keyring.ParseMasterKey(c.Config.MasterKey)
	if err != nil {
		return fmt.Errorf("MASTER_KEY: %w", err)
	}
	return c.withStore(func(db *badger.DB, log *slog.Logger) error {
		keys, err := keyring.New(db, log, masterKey)
		if err != nil {
			return err
		}
		defer keys.Close()
		return fn(keys)
	})
}
