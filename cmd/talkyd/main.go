package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/abradburne/talky"
	"github.com/abradburne/talky/aws"
	"github.com/abradburne/talky/bolt"
	"github.com/abradburne/talky/chatterbox"
	"github.com/abradburne/talky/http"
	"github.com/abradburne/talky/local"
)

func main() {
	m := NewMain()

	// Parse command line flags.
	if err := m.ParseFlags(os.Args[1:]); err == flag.ErrHelp {
		fmt.Fprintln(m.Stderr, m.Usage())
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}

	// Load configuration.
	if err := m.LoadConfig(); err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}

	// Execute program.
	if err := m.Run(); err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}

	// Shutdown on SIGINT (CTRL-C).
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	fmt.Fprintln(m.Stdout, "received interrupt, shutting down...")

	if err := m.Close(); err != nil {
		fmt.Fprintln(m.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the main program execution.
type Main struct {
	ConfigPath string
	Config     Config

	// Input/output streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	closeFn func() error
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{
		ConfigPath: DefaultConfigPath,
		Config:     DefaultConfig(),

		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,

		closeFn: func() error { return nil },
	}
}

// Close cleans up the program.
func (m *Main) Close() error { return m.closeFn() }

// Usage returns the usage message.
func (m *Main) Usage() string {
	return strings.TrimSpace(`
usage: talkyd [flags]

The daemon process serving text-to-speech API requests and processing.

The following flags are available:

	-config PATH
		Specifies the configuration file to read.
		Defaults to ~/.talky/config

`)
}

// ParseFlags parses the command line flags.
func (m *Main) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("talkyd", flag.ContinueOnError)
	fs.SetOutput(ioutil.Discard)
	fs.StringVar(&m.ConfigPath, "config", "", "config file")
	return fs.Parse(args)
}

// LoadConfig parses the configuration file.
func (m *Main) LoadConfig() error {
	// Default configuration path if not specified.
	path := m.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	// Interpolate path.
	if err := InterpolatePaths(&path); err != nil {
		return err
	}

	// Read configuration file.
	if _, err := toml.DecodeFile(path, &m.Config); os.IsNotExist(err) {
		if m.ConfigPath != "" {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}

// Run executes the program.
func (m *Main) Run() error {
	// Interpolate config paths.
	dbPath := m.Config.Database.Path
	audioPath := m.Config.Audio.Path
	modelDir := m.Config.TTS.ModelDir
	voicesDir := m.Config.TTS.VoicesDir
	if err := InterpolatePaths(&dbPath, &audioPath, &modelDir, &voicesDir); err != nil {
		return err
	}

	// Initialize artifact storage.
	artifactService := local.NewArtifactService()
	artifactService.Path = audioPath
	fmt.Fprintf(m.Stdout, "audio storage: path=%s\n", m.Config.Audio.Path)

	// Initialize the synthesis engine.
	var ttsService talky.TTSService
	var voiceService talky.VoiceService
	var modelService talky.ModelService
	switch m.Config.TTS.Engine {
	case "", "chatterbox":
		s := chatterbox.NewTTSService()
		if m.Config.TTS.Command != "" {
			s.Command = m.Config.TTS.Command
		}
		s.ModelDir = modelDir
		s.VoicesDir = voicesDir
		s.LocalOnly = m.Config.TTS.LocalOnly
		s.LogOutput = m.Stdout
		ttsService, voiceService, modelService = s, s, s
		fmt.Fprintf(m.Stdout, "tts engine: chatterbox, command=%s, local_only=%v\n", s.Command, s.LocalOnly)

	case "polly":
		sess, err := aws.NewSession(m.Config.AWS.AccessKeyID, m.Config.AWS.SecretAccessKey, m.Config.AWS.Region)
		if err != nil {
			return fmt.Errorf("error: aws session: %s", err)
		}
		s := aws.NewTTSService()
		s.Session = sess
		s.LogOutput = m.Stdout
		vs := aws.NewVoiceService()
		vs.Session = sess
		ttsService, voiceService = s, vs
		fmt.Fprintf(m.Stdout, "tts engine: polly, region=%s\n", m.Config.AWS.Region)

	default:
		return fmt.Errorf("error: unknown tts engine: %q", m.Config.TTS.Engine)
	}

	// Open database.
	db := bolt.NewDB()
	db.Path = dbPath
	if err := db.Open(); err != nil {
		return err
	}
	fmt.Fprintf(m.Stdout, "database initialized: path=%s\n", m.Config.Database.Path)

	// Instantiate bolt services.
	jobService := bolt.NewJobService(db)

	// Start job processor.
	jobProcessor := talky.NewJobProcessor()
	jobProcessor.JobService = jobService
	jobProcessor.TTSService = ttsService
	jobProcessor.ArtifactService = artifactService
	jobProcessor.LogOutput = m.Stdout

	if err := jobProcessor.Open(); err != nil {
		return fmt.Errorf("error: open job processor: %s", err)
	}

	// Initialize HTTP server.
	httpServer := http.NewServer()
	httpServer.Addr = m.Config.HTTP.Addr
	httpServer.Host = m.Config.HTTP.Host
	httpServer.Autocert = m.Config.HTTP.Autocert
	httpServer.LogOutput = m.Stdout

	httpServer.JobService = jobService
	httpServer.ArtifactService = artifactService
	httpServer.VoiceService = voiceService
	httpServer.JobEnqueuer = jobProcessor
	httpServer.ModelService = modelService

	// Open HTTP server.
	if err := httpServer.Open(); err != nil {
		return err
	}
	serverURL := httpServer.URL()
	fmt.Fprintf(m.Stdout, "http listening: %s\n", serverURL.String())

	// Assign close function.
	m.closeFn = func() error {
		httpServer.Close()
		jobProcessor.Close()
		db.Close()
		return nil
	}

	return nil
}

// DefaultConfigPath is the default configuration path.
const DefaultConfigPath = "~/.talky/config"

// Config represents a configuration file.
type Config struct {
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`

	Audio struct {
		Path string `toml:"path"`
	} `toml:"audio"`

	HTTP struct {
		Addr     string `toml:"addr"`
		Host     string `toml:"host"`
		Autocert bool   `toml:"autocert"`
	} `toml:"http"`

	TTS struct {
		Engine    string `toml:"engine"`
		Command   string `toml:"command"`
		ModelDir  string `toml:"model-dir"`
		VoicesDir string `toml:"voices-dir"`
		LocalOnly bool   `toml:"local-only"`
	} `toml:"tts"`

	AWS struct {
		AccessKeyID     string `toml:"access-key-id"`
		SecretAccessKey string `toml:"secret-access-key"`
		Region          string `toml:"region"`
	} `toml:"aws"`
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() Config {
	var c Config
	c.Database.Path = "~/.talky/db"
	c.Audio.Path = "~/.talky/audio"
	c.HTTP.Addr = ":3000"
	c.TTS.Engine = "chatterbox"
	c.TTS.ModelDir = "~/.talky/model"
	c.TTS.VoicesDir = "~/.talky/voices"
	return c
}

// InterpolatePaths replaces the tilde prefix with the user's home directory.
func InterpolatePaths(a ...*string) error {
	for _, s := range a {
		if !strings.HasPrefix(*s, "~/") {
			continue
		}

		u, err := user.Current()
		if err != nil {
			return err
		} else if u.HomeDir == "" {
			return errors.New("home directory not found")
		}
		*s = filepath.Join(u.HomeDir, strings.TrimPrefix(*s, "~/"))
	}
	return nil
}
