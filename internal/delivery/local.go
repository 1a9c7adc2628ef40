package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/models"
	"go.uber.org/zap"
)

// Local saves the artifact under a directory.
type Local struct {
	dir string
	log *zap.Logger
}

func NewLocal(dir string, lg *zap.Logger) *Local {
	return &Local{dir: dir, log: lg.Named("local")}
}

func (l *Local) Name() string { return ChannelLocal }

// Deliver writes through a temporary file so a failed write leaves nothing behind.
func (l *Local) Deliver(ctx context.Context, a Artifact, inv models.Invoice) Outcome {
	lang := i18n.LangFrom(ctx)
	path, err := l.write(a)
	if err != nil {
		l.log.Error("write failed", zap.String("invoice", inv.InvoiceNumber), zap.Error(err))
		return Failure{Kind: KindIO, Message: i18n.Tf(lang, "local_write_failed", err.Error()), Err: err}
	}
	l.log.Info("pdf saved", zap.String("invoice", inv.InvoiceNumber), zap.String("path", path))
	return Success{Message: i18n.Tf(lang, "local_saved", path), Location: path}
}

func (l *Local) write(a Artifact) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(l.dir, ".facture-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(a.PDF); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, filepath.Base(a.Filename))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}
