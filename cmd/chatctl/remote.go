package main

import (
	"chat-vault/auth"
	"chat-vault/infrastructure/grpc/client"
	"chat-vault/services"
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func runToken(_ context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	as := fs.String("as", "", "user id the token is issued for")
	roles := fs.String("roles", "", "comma separated roles")
	if err := fs.Parse(args); err != nil {
		return err
	}
	token, err := cli.token(*as, splitList(*roles))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func runSend(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	as := fs.String("as", "", "sender user id")
	conv := fs.String("conv", "", "conversation id")
	text := fs.String("text", "", "message text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cli.withClient(*as, func(c *client.MessageClient) error {
		message, err := c.Send(ctx, *conv, *text)
		if err != nil {
			return err
		}
		cli.success("Message %s sent at %s", message.ID, message.CreatedAt.Format(time.RFC3339Nano))
		return nil
	})
}

func runHistory(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	as := fs.String("as", "", "viewer user id")
	conv := fs.String("conv", "", "conversation id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cli.withClient(*as, func(c *client.MessageClient) error {
		messages, err := c.History(ctx, *conv)
		if err != nil {
			return err
		}
		table := cli.table([]string{"Time", "Sender", "Text"})
		for _, m := range messages {
			table.Append([]string{m.CreatedAt.Format(time.DateTime), senderLabel(m.Sender), m.Text})
		}
		table.Render()
		fmt.Fprintf(cli.out, "%d messages\n", len(messages))
		return nil
	})
}

func runSummary(ctx context.Context, cli *CLI, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	as := fs.String("as", "", "viewer user id")
	conv := fs.String("conv", "", "conversation id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cli.withClient(*as, func(c *client.MessageClient) error {
		summary, err := c.Summary(ctx, *conv)
		if err != nil {
			return err
		}
		if summary == nil {
			fmt.Fprintln(cli.out, "No message yet")
			return nil
		}
		fmt.Fprintf(cli.out, "%s  %s: %s\n", cli.header(summary.CreatedAt.Format(time.DateTime)), summary.SenderID, summary.Text)
		return nil
	})
}

func (c *CLI) token(userID string, roles []string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("-as is required")
	}
	tokens, err := auth.NewTokenManager(c.Config.JWTSecret, c.Config.TokenDuration)
	if err != nil {
		return "", fmt.Errorf("JWT_SECRET: %w", err)
	}
	return tokens.GenerateToken(userID, roles)
}

func (c *CLI) withClient(userID string, fn func(c *client.MessageClient) error) error {
	token, err := c.token(userID, nil)
	if err != nil {
		return err
	}
	conn, err := grpc.NewClient(c.Config.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.Config.Addr, err)
	}
	defer conn.Close()
	return fn(client.NewMessageClient(conn, token))
}

func (c *CLI) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func senderLabel(s services.SenderDto) string {
	if s.DisplayName != nil {
		return *s.DisplayName
	}
	if s.Username != nil {
		return *s.Username
	}
	return s.ID
}

func splitList(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
