package config

const (
	defaultConfigPath          = "~/.config/reelforge/config.toml"
	defaultContentDir          = "~/.local/share/reelforge/content"
	defaultLogDir              = "~/.local/share/reelforge/logs"
	defaultCatalogPath         = "~/.local/share/reelforge/catalog.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultLanguageConcurrency = 4
	defaultCreationMethod      = "static_image"
	defaultExtensionMethod     = "loop"
	defaultStaticDuration      = 5.0
	defaultVideoWidth          = 1080
	defaultVideoHeight         = 1920
	defaultSilenceDuration     = 1.5
	defaultRelativeVolume      = 0.3
	defaultTextProvider        = "openrouter"
	defaultTextModel           = "openrouter/auto"
	defaultTextBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultImageProvider       = "runware"
	defaultImageModel          = "runware:100@1"
	defaultImageBaseURL        = "https://api.runware.ai/v1"
	defaultVideoProvider       = "minimax"
	defaultVideoModel          = "I2V-01"
	defaultVideoBaseURL        = "https://api.minimaxi.chat/v1"
	defaultSpeechProvider      = "elevenlabs"
	defaultSpeechModel         = "eleven_multilingual_v2"
	defaultSpeechBaseURL       = "https://api.elevenlabs.io/v1"
	defaultSpeechVoiceID       = "JBFqnCBsd6RMkjVDRZzb"
	defaultSpeechOutputFormat  = "mp3_22050_32"
	defaultAITimeoutSeconds    = 60
	defaultPollIntervalSeconds = 30
	defaultMaxPollMinutes      = 20
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDir:  defaultContentDir,
			LogDir:      defaultLogDir,
			CatalogPath: defaultCatalogPath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Workflow: Workflow{
			LanguageConcurrency: defaultLanguageConcurrency,
		},
		Video: Video{
			CreationMethod:  defaultCreationMethod,
			ExtensionMethod: defaultExtensionMethod,
			StaticDuration:  defaultStaticDuration,
			Width:           defaultVideoWidth,
			Height:          defaultVideoHeight,
		},
		Audio: Audio{
			SilenceDuration: defaultSilenceDuration,
			RelativeVolume:  defaultRelativeVolume,
		},
		Subtitles: Subtitles{
			FontName:       "Arial",
			FontSize:       18,
			PrimaryColor:   "255,255,255,0",
			SecondaryColor: "255,0,0,0",
			OutlineColor:   "0,0,0,0",
			BackColor:      "0,0,0,0",
			Bold:           true,
			ScaleX:         100,
			ScaleY:         100,
			BorderStyle:    1,
			Outline:        2,
			Shadow:         1,
			Alignment:      "middle_center",
			MarginL:        20,
			MarginR:        20,
			MarginV:        20,
		},
		AI: AI{
			Text: AIService{
				Provider:       defaultTextProvider,
				Model:          defaultTextModel,
				BaseURL:        defaultTextBaseURL,
				TimeoutSeconds: defaultAITimeoutSeconds,
			},
			Image: AIService{
				Provider:       defaultImageProvider,
				Model:          defaultImageModel,
				BaseURL:        defaultImageBaseURL,
				TimeoutSeconds: defaultAITimeoutSeconds,
				Width:          768,
				Height:         1344,
			},
			Video: AIService{
				Provider:            defaultVideoProvider,
				Model:               defaultVideoModel,
				BaseURL:             defaultVideoBaseURL,
				TimeoutSeconds:      defaultAITimeoutSeconds,
				PollIntervalSeconds: defaultPollIntervalSeconds,
				MaxPollMinutes:      defaultMaxPollMinutes,
			},
			Speech: AIService{
				Provider:        defaultSpeechProvider,
				Model:           defaultSpeechModel,
				BaseURL:         defaultSpeechBaseURL,
				TimeoutSeconds:  defaultAITimeoutSeconds,
				VoiceID:         defaultSpeechVoiceID,
				OutputFormat:    defaultSpeechOutputFormat,
				Stability:       0.5,
				SimilarityBoost: 0.75,
				SpeakerBoost:    true,
			},
		},
		Ideas: Ideas{
			Count:       3,
			TextDetails: "short inspirational texts of around 30 words",
			ImageTags:   "photorealistic, vertical composition",
			Languages:   []string{"en"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunComplete:    true,
			Errors:         true,
		},
	}
}
