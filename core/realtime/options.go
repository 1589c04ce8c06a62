package realtime

type ConnectOptions struct {
	// SystemInstruction is static context computed once per session start.
	SystemInstruction string
	// Model overrides the transport's default live model when non-empty.
	Model string
	// APIKey overrides the credential normally taken from the process
	// environment.
	APIKey string
}

type ConnectOption func(*ConnectOptions)

func WithSystemInstruction(instruction string) ConnectOption {
	return func(o *ConnectOptions) {
		o.SystemInstruction = instruction
	}
}

func WithModel(model string) ConnectOption {
	return func(o *ConnectOptions) {
		o.Model = model
	}
}

func WithAPIKey(apiKey string) ConnectOption {
	return func(o *ConnectOptions) {
		o.APIKey = apiKey
	}
}
