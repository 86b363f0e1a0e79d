package app

import (
	"context"
	"sort"

	"vach_chat_service/internal/chat/domain"
	memberdomain "vach_chat_service/internal/member/domain"
)

// ListPeers sidebar: assistant 置頂, 其餘依最後訊息時間, 沒聊過的依名稱
func (d *DeliveryCoordinator) ListPeers(ctx context.Context, viewerID, keyword string) ([]domain.PeerSummary, error) {
	members, err := d.directory.List(ctx, memberdomain.MemberListQuery{ExcludeMemberID: viewerID, Keyword: keyword})
	if err != nil {
		return nil, err
	}
	convs, err := d.convRepo.ListByMember(ctx, viewerID, 0)
	if err != nil {
		return nil, err
	}

	byPeer := make(map[string]domain.Conversation, len(convs))
	lastIDs := make([]string, 0, len(convs))
	for _, c := range convs {
		byPeer[c.Peer(viewerID)] = c
		if c.LastMessage != "" {
			lastIDs = append(lastIDs, c.LastMessage)
		}
	}
	lasts, err := d.msgRepo.FindByIDs(ctx, lastIDs)
	if err != nil {
		return nil, err
	}
	lastByID := make(map[string]domain.Message, len(lasts))
	for _, m := range lasts {
		lastByID[m.ID] = m
	}

	peers := make([]domain.PeerSummary, 0, len(members))
	for _, m := range members {
		s := domain.PeerSummary{
			MemberID:    m.MemberID,
			Name:        m.Name,
			Email:       m.Email,
			ProfilePic:  m.ProfilePic,
			About:       m.About,
			IsAssistant: d.IsAssistant(m.MemberID),
			IsOnline:    d.IsAssistant(m.MemberID) || d.presence.IsOnline(m.MemberID),
		}
		if c, ok := byPeer[m.MemberID]; ok {
			s.UnreadCount = c.Unread(viewerID)
			s.LastActive = c.UpdatedAt
			if last, ok := lastByID[c.LastMessage]; ok {
				s.LastMessage = &last
			}
		}
		peers = append(peers, s)
	}

	sort.SliceStable(peers, func(i, j int) bool {
		if peers[i].IsAssistant != peers[j].IsAssistant {
			return peers[i].IsAssistant
		}
		if !peers[i].LastActive.Equal(peers[j].LastActive) {
			return peers[i].LastActive.After(peers[j].LastActive)
		}
		return peers[i].Name < peers[j].Name
	})
	return peers, nil
}

// OnlineMembers presence snapshot
func (d *DeliveryCoordinator) OnlineMembers() []string {
	return d.presence.Online()
}
