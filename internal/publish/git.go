// Package publish copies an export directory to the places it is served from, a git branch holding a
// single squashed commit and optionally an s3 compatible bucket.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
	libtelemetry "akleg-data/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = libtelemetry.Tracer("akleg.internal.publish")

const (
	report_git_push = "git.push"
	report_s3_put   = "s3.put"
)

const DefaultCommitMessage = "Update data"

// Config is the "publish" section of akleg.json5.
type Config struct {
	// defaults to the origin of the repository the command runs in
	Remote        string   `json:"remote"`
	CommitMessage string   `json:"commit_message"`
	AuthorName    string   `json:"author_name"`
	AuthorEmail   string   `json:"author_email"`
	S3            S3Config `json:"s3"`
}

// Runner runs a command in a directory and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err != nil {
		return out.String(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}

type GitPublisher struct {
	config Config
	runner Runner
	tel    telemetry.API
}

// NewGitPublisher creates a publisher, runner defaults to ExecRunner when nil.
func NewGitPublisher(config Config, runner Runner, tel telemetry.API) *GitPublisher {
	assert.NotNil(tel)
	if runner == nil {
		runner = ExecRunner{}
	}
	if config.CommitMessage == "" {
		config.CommitMessage = DefaultCommitMessage
	}
	return &GitPublisher{
		config: config,
		runner: runner,
		tel:    telemetry.NewScopedAPI("publish", tel),
	}
}

// DefaultRemote returns the origin of the repository in the working directory.
func (p *GitPublisher) DefaultRemote(ctx context.Context) (string, error) {
	out, err := p.runner.Run(ctx, "", "git", "config", "--get", "remote.origin.url")
	if err != nil {
		return "", fmt.Errorf("default remote: %w", err)
	}
	remote := strings.TrimSpace(out)
	if remote == "" {
		return "", fmt.Errorf("default remote: origin has no url")
	}
	return remote, nil
}

// Push overwrites branch on the remote with one commit containing the contents of dir. The history
// of the branch is discarded.
func (p *GitPublisher) Push(ctx context.Context, dir, branch string) error {
	ctx, span := tracer.Start(ctx, "GitPublisher.Push")
	defer span.End()
	span.SetAttributes(attribute.String("branch", branch))

	err := p.push(ctx, dir, branch)
	if err != nil {
		p.tel.ReportBroken(report_git_push, err, branch)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *GitPublisher) push(ctx context.Context, dir, branch string) error {
	if branch == "" {
		return fmt.Errorf("publish: no branch specified")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("publish: %s is not a directory", dir)
	}

	remote := p.config.Remote
	if remote == "" {
		remote, err = p.DefaultRemote(ctx)
		if err != nil {
			return err
		}
	}

	work, err := os.MkdirTemp("", "akleg-publish-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	err = copyDir(dir, work)
	if err != nil {
		return fmt.Errorf("publish: copy %s: %w", dir, err)
	}

	var identity []string
	if p.config.AuthorName != "" {
		identity = append(identity, "-c", "user.name="+p.config.AuthorName)
	}
	if p.config.AuthorEmail != "" {
		identity = append(identity, "-c", "user.email="+p.config.AuthorEmail)
	}

	steps := [][]string{
		{"init"},
		{"remote", "add", "origin", remote},
		{"checkout", "-b", branch},
		{"add", "."},
		append(identity, "commit", "-m", p.config.CommitMessage),
		{"config", "http.postBuffer", "524288000"},
		{"push", "--set-upstream", "origin", "--force", branch},
	}
	for _, args := range steps {
		p.tel.ReportDebug("git", strings.Join(args, " "))
		_, err = p.runner.Run(ctx, work, "git", args...)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return nil
}

// copyDir copies the regular files under src into dst, preserving the layout.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
