package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/internal/logging"
	"github.com/acoliver/soundcore/mixer"
	"github.com/acoliver/soundcore/soundsystem"
)

func openMusicPage(ffmpegPath string, sampleRate float64, channels int) soundsystem.PageDecoderOpener {
	return func(name string, startSeconds, runSeconds float32) (decoder.Decoder, error) {
		dec, err := decoder.NewFFmpegDecoder(name, uint32(sampleRate), channels, runSeconds, ffmpegPath)
		if err != nil {
			return nil, err
		}
		if startSeconds > 0 {
			if _, err := dec.Seek(uint32(startSeconds * 1000)); err != nil {
				dec.Close()
				return nil, err
			}
		}
		return dec, nil
	}
}

func openSFXFile(ffmpegPath string, sampleRate float64, channels int) soundsystem.DecoderOpener {
	return func(name string) (decoder.Decoder, error) {
		return decoder.NewFFmpegDecoder(name, uint32(sampleRate), channels, 0, ffmpegPath)
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML engine config overriding the defaults")
	ffmpegPath := flag.String("ffmpeg", "", "Path to ffmpeg executable (empty uses $PATH)")
	musicFile := flag.String("music", "", "Audio file to stream on the music slot")
	sfxFiles := flag.String("sfx", "", "Comma-separated list of SFX files to load into one bank")
	loop := flag.Bool("loop", false, "Loop the music stream")
	sampleRate := flag.Float64("rate", 44100, "Mixer sample rate")
	channels := flag.Int("channels", 2, "Mixer channel count")
	duration := flag.Duration("duration", 0, "Exit automatically after this long (0 = no time limit)")
	flag.Parse()

	logging.Init()
	log := logging.Logger()

	if *musicFile == "" && *sfxFiles == "" {
		fmt.Println("soundcli: stream music and/or play sound effects through the engine")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	backend, err := mixer.NewPortAudioBackend(*sampleRate, *channels)
	if err != nil {
		log.Fatal("open portaudio backend", "err", err)
	}
	defer backend.Close()

	sys, err := soundsystem.Init(cfg, backend,
		openMusicPage(*ffmpegPath, *sampleRate, *channels),
		openSFXFile(*ffmpegPath, *sampleRate, *channels))
	if err != nil {
		log.Fatal("init soundsystem", "err", err)
	}
	defer sys.Uninit()

	if *sfxFiles != "" {
		bank, err := sys.LoadBank(splitNonEmpty(*sfxFiles))
		if err != nil {
			log.Fatal("load sfx bank", "err", err)
		}
		if err := sys.PlayChannel(0, bank, 0, false, 0, 0, nil, 0); err != nil {
			log.Warn("play sfx channel 0", "err", err)
		}
		defer sys.ReleaseBank(bank)
	}

	if *musicFile != "" {
		log.Info("streaming music", "file", *musicFile)
		if err := sys.PlayMusic(*musicFile, *loop); err != nil {
			log.Fatal("play music", "err", err)
		}
	}

	quit := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		close(quit)
	}()

	if *duration > 0 {
		go func() {
			time.Sleep(*duration)
			close(quit)
		}()
	}

	if *musicFile != "" {
		sys.WaitForSoundEnd(soundsystem.AnySource(), true, quit)
	} else {
		<-quit
	}

	log.Info("soundcli: shutting down")
}
