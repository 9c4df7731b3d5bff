// Command synccli is a demonstration client for the storage engine in
// package syncclient: enough of a command-line tool to wipe, inspect, and
// push records to a real (or fake, for local testing) Sync 1.5 storage
// server, exercising the library end to end.
//
// synccli's Encrypter is a plain passthrough, NOT a real cryptographic
// envelope -- the sync key bundle and bulk-key encryption are left to the
// caller. A real client would plug in package hawkauth for signing and
// its own crypto package for the Encrypter.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/codegangsta/cli"
	"github.com/sirupsen/logrus"

	"github.com/mozilla-services/go-syncclient/backoff"
	"github.com/mozilla-services/go-syncclient/config"
	"github.com/mozilla-services/go-syncclient/hawkauth"
	"github.com/mozilla-services/go-syncclient/syncclient"
)

// passthroughEncrypter stores each record's payload as its literal JSON
// encoding. It exists only so synccli has something to hand
// ClientForCollection; it is not a substitute for the sync key/bulk key
// envelope.
type passthroughEncrypter struct{}

func (passthroughEncrypter) Serialize(record syncclient.Record[string]) (string, bool) {
	body, err := json.Marshal(record.Payload)
	if err != nil {
		return "", false
	}
	return string(body), true
}

func (passthroughEncrypter) Parse(payload string) (string, bool) {
	var value string
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return "", false
	}
	return value, true
}

func newClient(c *cli.Context, log *logrus.Logger) (*syncclient.StorageClient, error) {
	secret := c.GlobalString("secret")
	if secret == "" {
		return nil, cli.NewExitError("missing --secret", 1)
	}

	uid, err := strconv.ParseUint(c.GlobalString("uid"), 10, 64)
	if err != nil {
		return nil, cli.NewExitError("--uid must be numeric", 1)
	}

	rootURL := c.GlobalString("url")
	node := c.GlobalString("node")

	authorize, err := hawkauth.NewFromSecret([]byte(secret), uid, node, 0)
	if err != nil {
		return nil, err
	}

	return syncclient.NewStorageClient(rootURL, authorize, backoff.NewMemoryStore(), &syncclient.StorageClientConfig{
		Logger: log,
	}), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := cli.NewApp()
	app.Name = "synccli"
	app.Usage = "drive a Sync 1.5 storage server's collection and batch-upload API"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "url", Usage: "storage root, e.g. https://sync.example.com/1.5/12345"},
		cli.StringFlag{Name: "node", Usage: "storage node hostname the token is scoped to"},
		cli.StringFlag{Name: "uid", Usage: "numeric user id"},
		cli.StringFlag{Name: "secret", Usage: "shared token-signing secret"},
	}

	app.Commands = []cli.Command{
		{
			Name:  "wipe",
			Usage: "delete all of this user's storage",
			Action: func(c *cli.Context) error {
				client, err := newClient(c, log)
				if err != nil {
					return err
				}
				_, err = client.WipeStorage(context.Background())
				return err
			},
		},
		{
			Name:  "info",
			Usage: "print info/collections",
			Action: func(c *cli.Context) error {
				client, err := newClient(c, log)
				if err != nil {
					return err
				}
				resp, err := client.GetInfoCollections(context.Background())
				if err != nil {
					return err
				}
				for name, ts := range resp.Value {
					fmt.Printf("%s\t%d\n", name, ts)
				}
				return nil
			},
		},
		{
			Name:      "get",
			Usage:     "fetch one record",
			ArgsUsage: "<collection> <guid>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					return cli.NewExitError("usage: synccli get <collection> <guid>", 1)
				}
				client, err := newClient(c, log)
				if err != nil {
					return err
				}
				collection := syncclient.ClientForCollection(client, c.Args().Get(0), passthroughEncrypter{})
				resp, err := collection.Get(context.Background(), c.Args().Get(1))
				if err != nil {
					return err
				}
				fmt.Println(resp.Value.Payload)
				return nil
			},
		},
		{
			Name:      "put",
			Usage:     "write one record",
			ArgsUsage: "<collection> <guid> <payload>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 3 {
					return cli.NewExitError("usage: synccli put <collection> <guid> <payload>", 1)
				}
				client, err := newClient(c, log)
				if err != nil {
					return err
				}
				collection := syncclient.ClientForCollection(client, c.Args().Get(0), passthroughEncrypter{})
				record := syncclient.Record[string]{ID: c.Args().Get(1), Payload: c.Args().Get(2)}
				_, err = collection.Put(context.Background(), record, nil)
				return err
			},
		},
		{
			Name:      "load",
			Usage:     "batch-upload newline-delimited payloads read from a file",
			ArgsUsage: "<collection> <file>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					return cli.NewExitError("usage: synccli load <collection> <file>", 1)
				}
				client, err := newClient(c, log)
				if err != nil {
					return err
				}

				body, err := os.ReadFile(c.Args().Get(1))
				if err != nil {
					return err
				}

				collection := syncclient.ClientForCollection(client, c.Args().Get(0), passthroughEncrypter{})
				batch := collection.NewBatchOperation()

				lines := splitLines(string(body))
				for i, line := range lines {
					batch.AddRecords(syncclient.Record[string]{ID: fmt.Sprintf("line-%d", i), Payload: line})
				}

				uploaded := 0
				err = batch.Commit(context.Background(), nil, func(result syncclient.POSTResult) {
					uploaded += len(result.Success)
					log.WithField("succeeded", len(result.Success)).WithField("failed", len(result.Failed)).Info("batch chunk uploaded")
				})
				if err != nil {
					return err
				}

				fmt.Printf("uploaded %d of %d records\n", uploaded, len(lines))
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func splitLines(body string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(body); i++ {
		if body[i] == '\n' {
			if i > start {
				lines = append(lines, body[start:i])
			}
			start = i + 1
		}
	}
	if start < len(body) {
		lines = append(lines, body[start:])
	}
	return lines
}
