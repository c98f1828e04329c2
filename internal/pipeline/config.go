package pipeline

import "github.com/Sudo-psc/keyai-desktop/internal/config"

// GetConfig answers get_config with the active snapshot.
func (c *Controller) GetConfig() *config.Config {
	return c.cfg.Current()
}

// UpdateConfig answers update_config: validates and atomically hot-swaps
// the running config. The capture worker reads c.cfg.Current() per event
// and the persist worker reads the batch size per event, so those take
// effect without a restart; channel capacities and the persist flush
// interval are read once in StartCapture and change only on the next start.
func (c *Controller) UpdateConfig(cfg *config.Config) error {
	if err := c.cfg.Swap(cfg); err != nil {
		return wrapErr(CodeConfigInvalid, err)
	}
	return nil
}
