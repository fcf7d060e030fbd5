package config

import (
	"errors"
	"fmt"
)

var validProviders = map[string]bool{
	"faster-whisper": true,
	"openai":         true,
	"gemini":         true,
}

var validDevices = map[string]bool{
	"cpu":  true,
	"cuda": true,
	"auto": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.UploadLimitMB < 0 {
		return errors.New("server.upload_limit_mb must not be negative")
	}
	if !validProviders[c.Transcription.Provider] {
		return fmt.Errorf("transcription.provider %q: use faster-whisper, openai, or gemini", c.Transcription.Provider)
	}
	if c.Transcription.ModelSize == "" {
		return errors.New("transcription.model_size must be set")
	}
	if !validDevices[c.Transcription.Device] {
		return fmt.Errorf("transcription.device %q: use cpu, cuda, or auto", c.Transcription.Device)
	}
	if c.Transcription.CPUThreads < 0 {
		return errors.New("transcription.cpu_threads must not be negative")
	}
	switch c.Transcription.Provider {
	case "openai":
		if c.Transcription.OpenAIAPIKey == "" {
			return errors.New("OpenAI API key is required: set transcription.openai_api_key or OPENAI_API_KEY")
		}
	case "gemini":
		if c.Transcription.GeminiAPIKey == "" {
			return errors.New("Gemini API key is required: set transcription.gemini_api_key or GEMINI_API_KEY")
		}
	}
	return nil
}
