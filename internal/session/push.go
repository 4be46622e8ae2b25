package session

import "context"

func (c *Controller) onPushRefresh(token string) {
	c.api.SetPushToken(token)
	c.logger.Debug("push token refreshed")
	c.syncPushToken()
}

// syncPushToken posts the device push token in the background. It does
// nothing without a session token; failures are only logged.
func (c *Controller) syncPushToken() {
	if c.push == nil || c.api.Token() == "" {
		return
	}
	token := c.push.Token()
	if token == "" {
		return
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pushSyncTimeout)
		defer cancel()
		if err := c.api.UpdatePushToken(ctx, token); err != nil {
			c.logger.Warn("push token sync failed", "err", err)
			return
		}
		c.logger.Debug("push token synced")
	}()
}
