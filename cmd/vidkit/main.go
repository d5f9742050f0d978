package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/auth"
	"github.com/emojimake/videokit/internal/client"
	"github.com/emojimake/videokit/internal/config"
	"github.com/emojimake/videokit/internal/model"
	"github.com/emojimake/videokit/internal/service"
)

const usage = `usage: vidkit <command> [flags]

commands:
  register         create an account
  login            authenticate and persist the session
  logout           clear the persisted session
  change-password  change the account password
  t2v              generate a video from a text prompt
  i2v              animate an image
  prompt           generate a video from role and action
  status           query a job once
`

type app struct {
	cfg      *config.Config
	sessions *auth.Store
	users    *service.UserService
	orch     *service.Orchestrator
	videos   *service.VideoService
	logger   zerolog.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := a.run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	sessions := auth.NewStore(auth.NewFileStore(cfg.Auth.CredentialsPath))
	if _, err := sessions.Restore(); err != nil {
		logger.Warn().Err(err).Msg("could not restore session")
	}
	sessions.OnEvent(func(ev auth.Event) {
		if ev == auth.EventExpired {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		}
	})

	api := client.New(client.Options{
		BaseURL:            cfg.Client.BaseURL,
		Timeout:            time.Duration(cfg.Client.Timeout) * time.Second,
		InsecureSkipVerify: cfg.Client.InsecureSkipVerify,
		Tokens:             sessions,
		Logger:             logger,
	})

	validate := validator.New()
	if err := service.RegisterPhoneValidation(validate); err != nil {
		return nil, err
	}

	videos := service.NewVideoService(api, validate, logger)
	users := service.NewUserService(api, sessions, validate, logger)
	orch := service.NewOrchestrator(
		videos,
		time.Duration(cfg.Poll.IntervalMS)*time.Millisecond,
		cfg.Poll.MaxCycles,
		logger,
	)

	return &app{
		cfg:      cfg,
		sessions: sessions,
		users:    users,
		orch:     orch,
		videos:   videos,
		logger:   logger,
	}, nil
}

func (a *app) run(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		phone := fs.String("phone", "", "phone number")
		password := fs.String("password", "", "password (min 8 characters)")
		fs.Parse(args)
		if err := a.users.Register(ctx, *phone, *password); err != nil {
			return err
		}
		fmt.Println("registered")
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		phone := fs.String("phone", "", "phone number")
		password := fs.String("password", "", "password")
		fs.Parse(args)
		if err := a.users.Login(ctx, *phone, *password); err != nil {
			return err
		}
		fmt.Println("logged in")
		return nil

	case "logout":
		if err := a.users.Logout(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "change-password":
		fs := flag.NewFlagSet("change-password", flag.ExitOnError)
		newPassword := fs.String("new-password", "", "new password (min 8 characters)")
		fs.Parse(args)
		if err := a.users.ChangePassword(ctx, *newPassword); err != nil {
			return err
		}
		fmt.Println("password changed")
		return nil

	case "t2v":
		fs := flag.NewFlagSet("t2v", flag.ExitOnError)
		prompt := fs.String("prompt", "", "what to generate")
		negative := fs.String("negative", "", "what to avoid")
		size := fs.String("size", "", "video size, e.g. 624*624")
		fs.Parse(args)
		return a.generate(ctx, model.TextToVideo{
			Prompt:         *prompt,
			NegativePrompt: *negative,
			Size:           *size,
		})

	case "i2v":
		fs := flag.NewFlagSet("i2v", flag.ExitOnError)
		prompt := fs.String("prompt", "", "how to animate the image")
		negative := fs.String("negative", "", "what to avoid")
		resolution := fs.String("resolution", "", "output resolution, e.g. 480P")
		image := fs.String("image", "", "path to the source image")
		fs.Parse(args)

		data, err := os.ReadFile(*image)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		return a.generate(ctx, model.ImageToVideo{
			Prompt:         *prompt,
			NegativePrompt: *negative,
			Resolution:     *resolution,
			ImageData:      data,
		})

	case "prompt":
		fs := flag.NewFlagSet("prompt", flag.ExitOnError)
		role := fs.String("role", "", "who performs the action")
		source := fs.String("source", "", "source hint")
		action := fs.String("action", "", "what the role does")
		size := fs.String("size", "", "video size, e.g. 624*624")
		fs.Parse(args)
		return a.generate(ctx, model.PromptDrivenVideo{
			Role:   *role,
			Source: *source,
			Action: *action,
			Size:   *size,
		})

	case "status":
		fs := flag.NewFlagSet("status", flag.ExitOnError)
		jobID := fs.String("job", "", "job id")
		fs.Parse(args)
		job, err := a.videos.QueryJob(ctx, *jobID)
		if err != nil {
			return err
		}
		printJob(job)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// generate submits the request and follows the job to a terminal state,
// printing each observed transition.
func (a *app) generate(ctx context.Context, req model.GenerationRequest) error {
	jobID, err := a.orch.Submit(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println("job submitted:", jobID)

	events, err := a.orch.Poll(ctx, jobID)
	if err != nil {
		return err
	}

	for t := range events {
		switch t.State {
		case service.PollPolling:
			status := ""
			if t.Job != nil {
				status = string(t.Job.Status)
			}
			fmt.Printf("cycle %d: %s\n", t.Cycle, status)
		case service.PollSucceeded:
			fmt.Println("done:", t.Job.ResultURL)
			return nil
		case service.PollFailed:
			return fmt.Errorf("generation failed: %s", t.Job.ErrorMessage)
		case service.PollTimedOut, service.PollErrored:
			return t.Err
		}
	}
	return nil
}

func printJob(job *model.Job) {
	fmt.Printf("job %s: %s\n", job.ID, job.Status)
	if job.ResultURL != "" {
		fmt.Println("video:", job.ResultURL)
	}
	if job.ErrorMessage != "" {
		fmt.Println("error:", job.ErrorMessage)
	}
}
