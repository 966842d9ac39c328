package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nimbustalk.org/internal/config"
	"nimbustalk.org/internal/controller"
	"nimbustalk.org/internal/gateway"
	"nimbustalk.org/internal/obs"
	"nimbustalk.org/internal/session"
)

var version = "0.3.1"

const usage = `nimbusctl <command> [flags]

Commands:
  login     -email -password
  register  -email -password -username -display-name
  whoami
  search    -term
  check     -username
  recover   -email
  refresh
  logout
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	obs.Init()
	obs.InitBuildInfo(version, "")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	storePath := os.Getenv("NIMBUS_PREFS_PATH")
	if storePath == "" {
		storePath, err = session.DefaultPath()
		if err != nil {
			log.Fatalf("prefs path: %v", err)
		}
	}
	store, err := session.NewFileStore(storePath)
	if err != nil {
		log.Fatalf("open prefs: %v", err)
	}

	client := gateway.NewClient(cfg)
	auth := gateway.NewAuthGateway(client)
	profiles := gateway.NewProfileGateway(client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "login":
		runLogin(ctx, args, auth, profiles, store, cfg)
	case "register":
		runRegister(ctx, args, auth, profiles, store, cfg)
	case "whoami":
		runWhoami(store)
	case "search":
		runSearch(ctx, args, profiles, store)
	case "check":
		runCheck(ctx, args, profiles)
	case "recover":
		runRecover(ctx, args, auth)
	case "refresh":
		runRefresh(ctx, auth, store)
	case "logout":
		runLogout(ctx, auth, store)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runLogin(ctx context.Context, args []string, auth *gateway.AuthGateway, profiles *gateway.ProfileGateway, store session.Store, cfg config.Config) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	ctl := controller.NewLoginController(auth, profiles, store, cfg)
	ctl.SetEmail(*email)
	ctl.SetPassword(*password)
	if !ctl.FormValid.Get() {
		log.Fatalf("login: %s / %s", ctl.EmailOutcome.Get().Message(), ctl.PasswordOutcome.Get().Message())
	}
	ctl.Submit(ctx)
	if ctl.LoadingState.Get() != controller.Success {
		log.Fatalf("login failed: %s", ctl.ErrorMessage.Get())
	}
	for _, evt := range ctl.Events.Drain() {
		fmt.Println(evt.Message)
	}
}

func runRegister(ctx context.Context, args []string, auth *gateway.AuthGateway, profiles *gateway.ProfileGateway, store session.Store, cfg config.Config) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	username := fs.String("username", "", "unique username")
	displayName := fs.String("display-name", "", "public display name")
	fs.Parse(args)

	ctl := controller.NewRegisterController(auth, profiles, store, cfg)
	defer ctl.Close()
	ctl.SetEmail(*email)
	ctl.SetUsername(*username)
	ctl.SetDisplayName(*displayName)
	ctl.SetPassword(*password)
	ctl.SetConfirmPassword(*password)

	// The CLI has no keystroke stream, so wait out the debounce window
	// before looking at availability.
	waitForIdleCheck(ctx, ctl, cfg.DebounceDelay)
	if ctl.UsernameAvailability.Get() == controller.AvailabilityTaken {
		log.Fatalf("register: username %q is already taken", *username)
	}

	ctl.Submit(ctx)
	if ctl.LoadingState.Get() != controller.Success {
		log.Fatalf("register failed: %s", ctl.ErrorMessage.Get())
	}
	for _, evt := range ctl.Events.Drain() {
		fmt.Println(evt.Message)
	}
}

func waitForIdleCheck(ctx context.Context, ctl *controller.RegisterController, debounce time.Duration) {
	deadline := time.Now().Add(debounce + 5*time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		if ctl.UsernameAvailability.Get() != controller.AvailabilityUnknown && !ctl.UsernameCheckInFlight.Get() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func runWhoami(store session.Store) {
	if !store.IsLoggedIn() {
		fmt.Println("not logged in")
		return
	}
	sess, err := store.Load()
	if err != nil {
		log.Fatalf("whoami: %v", err)
	}
	fmt.Printf("%s <%s> @%s (user %s)\n", sess.DisplayName, sess.Email, sess.Username, sess.UserID)
	if exp, err := session.AccessTokenExpiry(sess.AccessToken); err == nil {
		fmt.Printf("access token expires %s\n", exp.Format(time.RFC3339))
	}
}

func runSearch(ctx context.Context, args []string, profiles *gateway.ProfileGateway, store session.Store) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	term := fs.String("term", "", "search term")
	fs.Parse(args)

	sess, err := store.Load()
	if err != nil {
		log.Fatalf("search requires a session: %v", err)
	}
	results, err := profiles.SearchUsers(ctx, *term, sess.AccessToken)
	if err != nil {
		log.Fatalf("search: %s", gateway.UserMessageOf(err))
	}
	for _, p := range results {
		fmt.Printf("@%s\t%s\n", p.Username, p.DisplayName)
	}
}

func runCheck(ctx context.Context, args []string, profiles *gateway.ProfileGateway) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	username := fs.String("username", "", "username to check")
	fs.Parse(args)

	available, err := profiles.CheckUsernameAvailability(ctx, *username)
	if err != nil {
		log.Fatalf("check: %s", gateway.UserMessageOf(err))
	}
	if available {
		fmt.Printf("%s is available\n", *username)
	} else {
		fmt.Printf("%s is taken\n", *username)
	}
}

func runRecover(ctx context.Context, args []string, auth *gateway.AuthGateway) {
	fs := flag.NewFlagSet("recover", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	fs.Parse(args)

	if err := auth.ForgotPassword(ctx, *email); err != nil {
		log.Fatalf("recover: %s", gateway.UserMessageOf(err))
	}
	fmt.Println("password reset email requested")
}

func runRefresh(ctx context.Context, auth *gateway.AuthGateway, store session.Store) {
	ctl := controller.NewBootstrapController(auth, store)
	if err := ctl.RefreshSession(ctx, 10*time.Minute); err != nil {
		log.Fatalf("refresh: %v", err)
	}
	fmt.Println("session refreshed")
}

func runLogout(ctx context.Context, auth *gateway.AuthGateway, store session.Store) {
	ctl := controller.NewBootstrapController(auth, store)
	ctl.Logout(ctx)
	fmt.Println("logged out")
}
