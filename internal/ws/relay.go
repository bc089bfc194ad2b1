package ws

import "go.uber.org/zap"

// relayToPeer forwards a signaling frame (offer/answer/candidate) to the
// target participant's live connection. The negotiation payload passes
// through verbatim; only targetUserId is read. A missing or closed target
// is logged and dropped with no reply to the initiator.
func (s *Server) relayToPeer(c *ConnContext, msgType string, body SignalBody) error {
	if body.TargetUserID == "" {
		zap.L().Warn("signal.no_target", zap.String("type", msgType), zap.String("conn_id", c.ConnID))
		return nil
	}

	target, ok := s.registry.LookupByUserID(body.TargetUserID)
	if !ok || target.Sender == nil || !target.Sender.IsOpen() {
		zap.L().Debug("signal.target_missing",
			zap.String("type", msgType),
			zap.String("target_user_id", body.TargetUserID))
		return nil
	}

	if err := target.Sender.TrySend(c.raw); err != nil {
		zap.L().Debug("signal.send_failed",
			zap.String("type", msgType),
			zap.String("target_user_id", body.TargetUserID),
			zap.Error(err))
	}
	return nil
}

func (s *Server) registerSignal(msgType string) {
	RegisterHandler(s.router, msgType, func(c *ConnContext, body SignalBody) error {
		return s.relayToPeer(c, msgType, body)
	})
}
