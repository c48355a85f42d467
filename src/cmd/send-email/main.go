// entrypoint with subprograms for checking e-mail delivery outside of an invoicing run
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/config"
	"teamwork-invoicer/src/pkg/email"
	"teamwork-invoicer/src/pkg/util"
)

type commonFlags struct {
	provider, sender, recipients, subject *string
}

func addCommonFlags(fs *flag.FlagSet, defaultSubject string) commonFlags {
	return commonFlags{
		provider:   fs.String("provider", string(email.ProviderMailgun), "Provider to use: mailgun, sendgrid or ses"),
		sender:     fs.String("sender", "", "Sender's address"),
		recipients: fs.String("recipient", "", "Comma separated recipients"),
		subject:    fs.String("subject", defaultSubject, "Subject of the e-mail"),
	}
}

func (f commonFlags) ensure(fs *flag.FlagSet) {
	var required util.RequiredFlags
	required.Add(f.sender, "sender")
	required.Add(f.recipients, "recipient")
	required.Add(f.provider, "provider")
	required.Ensure(fs.Usage)
}

func (f commonFlags) send(text, html string) {
	e := email.SendMessage(context.Background(), email.Provider(*f.provider), email.Message{
		Sender:     *f.sender,
		Recipients: config.SplitList(*f.recipients),
		Subject:    *f.subject,
		Text:       text,
		HTML:       html,
	})
	e.QuitIf(xerr.ErrorTypeError)
	tl.Log(tl.Notice, palette.GreenBold, "%s sent via %s", "E-mail", *f.provider)
}

/*
Pick a provider and send a short test message with it.
*/
func testProvider(subprogram string, args []string) {
	fs := flag.NewFlagSet(subprogram, flag.ExitOnError)
	envPath := fs.String("env", ".env", "Optional dotenv file with provider credentials")
	common := addCommonFlags(fs, "Teamwork invoicer test")

	xerr.QuitIfError(fs.Parse(args), "Unable to parse flags")
	config.LoadDotEnv(*envPath)
	config.CheckIfEnvVarsPresent(
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION", // amazon ses
		"MAILGUN_DOMAIN", "MAILGUN_API_KEY", // mailgun
		"SENDGRID_API_KEY", // sendgrid
	)
	common.ensure(fs)

	text := fmt.Sprintf("Test message from %s.", config.GetPackageName())
	common.send(text, "<p>"+text+"</p>")
}

/*
Send an existing plaintext report, e.g. to re-deliver the report of an earlier run.
*/
func sendReport(subprogram string, args []string) {
	fs := flag.NewFlagSet(subprogram, flag.ExitOnError)
	envPath := fs.String("env", ".env", "Optional dotenv file with provider credentials")
	reportPath := fs.String("report", "report.txt", "Report written by the invoicer")
	common := addCommonFlags(fs, "Teamwork invoices report")

	xerr.QuitIfError(fs.Parse(args), "Unable to parse flags")
	config.LoadDotEnv(*envPath)
	common.ensure(fs)

	content, err := os.ReadFile(*reportPath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *reportPath))
	tl.Log(tl.Verbose, palette.BlueDim, "Report:\n```\n%s\n```", content)

	text := string(content)
	html := "<pre>" + strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(text) + "</pre>"
	common.send(text, html)
}

func main() {
	if len(os.Args) < 2 {
		tl.Log(tl.Error, palette.Red, "Usage: %s", "go run src/cmd/send-email/main.go test-provider|send-report [flags]")
		os.Exit(util.UsageExitCode)
	}
	subprogram := os.Args[1]
	args := os.Args[2:]

	switch subprogram {
	case "test-provider":
		testProvider(subprogram, args)
	case "send-report":
		sendReport(subprogram, args)
	default:
		tl.Log(tl.Error, palette.Red, "Unknown subprogram: %s", subprogram)
		os.Exit(util.UsageExitCode)
	}
}
