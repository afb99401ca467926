package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bunchhieng/coursetree/internal/app"
	cmds "github.com/bunchhieng/coursetree/internal/cli"
	"github.com/bunchhieng/coursetree/internal/config"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/templates"
	"github.com/bunchhieng/coursetree/internal/tui"
)

var version = "dev"

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:    "coursetree",
		Usage:   "plan, review and share course trees",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file (default: platform config directory)", EnvVars: []string{"COURSETREE_CONFIG"}},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for the local database and registry", EnvVars: []string{"COURSETREE_DATA_DIR"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "store", Usage: "document store: sqlite, redis or http"},
		},
		Commands: []*cli.Command{
			{
				Name:  "new",
				Usage: "create a tree from a template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Value: templates.Blank, Usage: "template name"},
				},
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					return cmd.New(ctx, c.String("template"))
				}),
			},
			{
				Name:  "templates",
				Usage: "list the templates new accepts",
				Action: func(c *cli.Context) error {
					for _, name := range templates.Names() {
						t, err := templates.Get(name)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "%-12s %s\n", name, t.Description)
					}
					return nil
				},
			},
			{
				Name:      "open",
				Usage:     "open a tree in the interactive editor",
				ArgsUsage: "<id>",
				Action: withApp(func(ctx context.Context, c *cli.Context, a *app.App) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return tui.Run(a, id)
				}),
			},
			{
				Name:      "show",
				Usage:     "print a tree",
				ArgsUsage: "<id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.Show(ctx, id)
				}),
			},
			editCommand(),
			{
				Name:      "fork",
				Aliases:   []string{"remix"},
				Usage:     "copy a tree into a new one you own",
				ArgsUsage: "<id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.Fork(ctx, id)
				}),
			},
			{
				Name:      "collect",
				Usage:     "add or remove a tree from your collection",
				ArgsUsage: "<id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.Collect(ctx, id)
				}),
			},
			{
				Name:      "like",
				Usage:     "like a tree",
				ArgsUsage: "<id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.Like(ctx, id)
				}),
			},
			{
				Name:      "share",
				Usage:     "copy a tree's link to the clipboard",
				ArgsUsage: "<id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.Share(ctx, id)
				}),
			},
			{
				Name:  "history",
				Usage: "list recently opened trees",
				Action: withCommands(func(_ context.Context, _ *cli.Context, cmd *cmds.Commands) error {
					return cmd.History()
				}),
			},
			{
				Name:  "collected",
				Usage: "list collected trees",
				Action: withCommands(func(_ context.Context, _ *cli.Context, cmd *cmds.Commands) error {
					return cmd.Collected()
				}),
			},
			{
				Name:      "export",
				Usage:     "write a tree as JSON",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default: stdout)"},
				},
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					out := c.App.Writer
					if path := c.String("output"); path != "" {
						f, err := os.Create(path)
						if err != nil {
							return fmt.Errorf("create output file: %w", err)
						}
						defer f.Close()
						out = f
					}
					return cmd.Export(ctx, id, out)
				}),
			},
			{
				Name:      "import",
				Usage:     "create a tree from an exported JSON file",
				ArgsUsage: "<file>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					file, err := stringArg(c, 0, "file")
					if err != nil {
						return err
					}
					return cmd.Import(ctx, file)
				}),
			},
			{
				Name:  "serve",
				Usage: "serve the document store over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "listen address (default from config)"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if listen := c.String("listen"); listen != "" {
						cfg.Server.Listen = listen
					}
					log := logger.New(cfg.LogLevel, cfg.PrettyLog)
					defer log.Sync()
					return app.Serve(cfg, log, version)
				},
			},
			configCommand(),
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					cmds.NewCommands(nil, c.App.Writer, nil).Version(version)
					return nil
				},
			},
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "change a tree you own",
		Subcommands: []*cli.Command{
			{
				Name:      "title",
				Usage:     "rename the tree",
				ArgsUsage: "<id> <title>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.SetTitle(ctx, id, restArgs(c, 1))
				}),
			},
			{
				Name:      "contact",
				Usage:     "set contact info, or clear it when empty",
				ArgsUsage: "<id> [info]",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.SetContact(ctx, id, restArgs(c, 1))
				}),
			},
			{
				Name:      "author",
				Usage:     "set the author name, or clear it when empty",
				ArgsUsage: "<id> [name]",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.SetAuthor(ctx, id, restArgs(c, 1))
				}),
			},
			{
				Name:      "add-course",
				Usage:     "add a course to a year",
				ArgsUsage: "<id> [name]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Aliases: []string{"y"}, Value: model.MinYear, Usage: "year column (1-4)"},
				},
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					return cmd.AddCourse(ctx, id, c.Int("year"), restArgs(c, 1))
				}),
			},
			{
				Name:      "review",
				Usage:     "rate and review a course",
				ArgsUsage: "<id> <course-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "1-5, or 0 for none"},
					&cli.StringFlag{Name: "review", Usage: "one-line review"},
					&cli.StringFlag{Name: "prof", Usage: "professor review"},
					&cli.StringFlag{Name: "name", Usage: "rename the course"},
				},
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					courseID, err := stringArg(c, 1, "course-id")
					if err != nil {
						return err
					}
					return cmd.Review(ctx, id, courseID, c.String("name"), c.Int("rating"), c.String("review"), c.String("prof"))
				}),
			},
			{
				Name:      "status",
				Usage:     "mark a course completed",
				ArgsUsage: "<id> <course-id> <status>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					courseID, err := stringArg(c, 1, "course-id")
					if err != nil {
						return err
					}
					status, err := stringArg(c, 2, "status")
					if err != nil {
						return err
					}
					return cmd.SetStatus(ctx, id, courseID, model.Status(strings.ToLower(status)))
				}),
			},
			{
				Name:      "rm-course",
				Usage:     "delete a course",
				ArgsUsage: "<id> <course-id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					courseID, err := stringArg(c, 1, "course-id")
					if err != nil {
						return err
					}
					return cmd.RemoveCourse(ctx, id, courseID)
				}),
			},
			{
				Name:      "add-resource",
				Usage:     "attach a link to a course",
				ArgsUsage: "<id> <course-id> <url>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "link title (default: the URL's host)"},
					&cli.StringFlag{Name: "type", Value: string(model.ResourceLink), Usage: "video, article, link or other"},
				},
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					courseID, err := stringArg(c, 1, "course-id")
					if err != nil {
						return err
					}
					url, err := stringArg(c, 2, "url")
					if err != nil {
						return err
					}
					return cmd.AddResource(ctx, id, courseID, url, c.String("title"), c.String("type"))
				}),
			},
			{
				Name:      "rm-resource",
				Usage:     "detach a link from a course",
				ArgsUsage: "<id> <course-id> <resource-id>",
				Action: withCommands(func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error {
					id, err := idArg(c, 0)
					if err != nil {
						return err
					}
					courseID, err := stringArg(c, 1, "course-id")
					if err != nil {
						return err
					}
					resourceID, err := stringArg(c, 2, "resource-id")
					if err != nil {
						return err
					}
					return cmd.RemoveResource(ctx, id, courseID, resourceID)
				}),
			},
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write the default config file",
				Action: func(c *cli.Context) error {
					path, err := configPath(c)
					if err != nil {
						return err
					}
					dataDir, err := dataDir(c)
					if err != nil {
						return err
					}
					if err := config.Init(path, config.Default(dataDir)); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Wrote config to %s\n", path)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "print the effective configuration",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					m := &config.Manager{}
					return m.Write(c.App.Writer, cfg)
				},
			},
		},
	}
}

func configPath(c *cli.Context) (string, error) {
	if path := c.String("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func dataDir(c *cli.Context) (string, error) {
	if dir := c.String("data-dir"); dir != "" {
		return dir, nil
	}
	return config.DefaultDir()
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path, err := configPath(c)
	if err != nil {
		return nil, err
	}
	dir, err := dataDir(c)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, dir)
	if err != nil {
		return nil, err
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = dir
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if store := c.String("store"); store != "" {
		cfg.Store.Type = store
	}
	return cfg, nil
}

// withApp opens the app for one command and closes it afterwards.
func withApp(fn func(ctx context.Context, c *cli.Context, a *app.App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer log.Sync()

		a, err := app.New(c.Context, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(c.Context, c, a)
	}
}

func withCommands(fn func(ctx context.Context, c *cli.Context, cmd *cmds.Commands) error) cli.ActionFunc {
	return withApp(func(ctx context.Context, c *cli.Context, a *app.App) error {
		return fn(ctx, c, cmds.NewCommands(a, c.App.Writer, nil))
	})
}

func idArg(c *cli.Context, i int) (string, error) {
	s, err := stringArg(c, i, "id")
	if err != nil {
		return "", err
	}
	return cmds.ParseID(s)
}

func stringArg(c *cli.Context, i int, name string) (string, error) {
	if c.NArg() <= i {
		return "", fmt.Errorf("usage: coursetree %s %s (missing %s)", c.Command.FullName(), c.Command.ArgsUsage, name)
	}
	return c.Args().Get(i), nil
}

// restArgs joins the arguments from position i so multi-word values need no quoting.
func restArgs(c *cli.Context, i int) string {
	args := c.Args().Slice()
	if len(args) <= i {
		return ""
	}
	return strings.Join(args[i:], " ")
}
