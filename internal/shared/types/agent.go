package types

// AgentConfig is the per-task agent configuration
type AgentConfig struct {
	ModelTier string            `json:"model_tier" yaml:"model_tier" toml:"model_tier"`
	ThreadID  string            `json:"thread_id,omitempty" yaml:"thread_id" toml:"thread_id"`
	Provider  map[string]string `json:"provider,omitempty" yaml:"provider" toml:"provider"`
}

// AgentConfigPatch is a partial update. Nil fields are left unchanged and
// Provider entries are merged key by key.
type AgentConfigPatch struct {
	ModelTier *string           `json:"model_tier,omitempty"`
	ThreadID  *string           `json:"thread_id,omitempty"`
	Provider  map[string]string `json:"provider,omitempty"`
}

// Merge returns a copy of c with patch applied
func (c AgentConfig) Merge(patch AgentConfigPatch) AgentConfig {
	out := c.Clone()
	if patch.ModelTier != nil {
		out.ModelTier = *patch.ModelTier
	}
	if patch.ThreadID != nil {
		out.ThreadID = *patch.ThreadID
	}
	if len(patch.Provider) > 0 {
		if out.Provider == nil {
			out.Provider = make(map[string]string, len(patch.Provider))
		}
		for k, v := range patch.Provider {
			out.Provider[k] = v
		}
	}
	return out
}

// Clone returns a deep copy
func (c AgentConfig) Clone() AgentConfig {
	out := c
	if c.Provider != nil {
		out.Provider = make(map[string]string, len(c.Provider))
		for k, v := range c.Provider {
			out.Provider[k] = v
		}
	}
	return out
}
