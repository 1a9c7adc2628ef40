package delivery

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"go.uber.org/zap"
)

// Print pipes the artifact to a spooler command such as "lp" or "lp -d office".
type Print struct {
	command []string
	log     *zap.Logger
}

func NewPrint(command string, lg *zap.Logger) *Print {
	return &Print{command: strings.Fields(command), log: lg.Named("print")}
}

func (p *Print) Name() string { return ChannelPrint }

func (p *Print) Deliver(ctx context.Context, a Artifact, inv models.Invoice) Outcome {
	lang := i18n.LangFrom(ctx)
	if len(p.command) == 0 {
		err := errors.New("no print command")
		return Failure{Kind: KindMisconfigured, Message: i18n.Tf(lang, "print_failed", err.Error()), Err: err}
	}
	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(a.PDF)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		p.log.Error("print failed", zap.String("invoice", inv.InvoiceNumber), zap.String("stderr", detail), zap.Error(err))
		return Failure{Kind: KindIO, Message: i18n.Tf(lang, "print_failed", detail), Err: err}
	}
	p.log.Info("sent to printer", zap.String("invoice", inv.InvoiceNumber), zap.Strings("command", p.command))
	return Success{Message: i18n.T(lang, "print_sent")}
}
