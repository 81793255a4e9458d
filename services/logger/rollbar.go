package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// RollbarLogger reports to Rollbar and mirrors everything on a standard
// logger so local output is never lost.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) { rollbar.SetEnabled(enabled) }

// report forwards to Rollbar at the given level after splitting out any
// user.User arg, which becomes the Rollbar person instead of a payload field.
func (l RollbarLogger) report(level string, msg string, args []interface{}) {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)

	var person *user.User
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if person == nil {
				person = &usr
			}
			continue
		}
		payload = append(payload, arg)
	}
	if person != nil {
		rollbar.SetPerson(person.ID, person.Name, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, payload...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
