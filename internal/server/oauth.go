package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"beatleader-bot/internal/api"
	"beatleader-bot/internal/domain"
)

// SignOAuthState wraps a guild id into an opaque state value for the
// authorize redirect. The signature keeps callers from completing the
// flow for a guild they did not start it for.
func SignOAuthState(secret string, guildID domain.GuildID) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(guildID))

	return base64.RawURLEncoding.EncodeToString([]byte(guildID)) + "." + hex.EncodeToString(mac.Sum(nil))
}

func verifyOAuthState(secret, state string) (domain.GuildID, error) {
	encoded, signature, found := strings.Cut(state, ".")
	if !found {
		return "", fmt.Errorf("malformed oauth state")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed oauth state: %w", err)
	}

	if SignOAuthState(secret, domain.GuildID(raw)) != encoded+"."+signature {
		return "", fmt.Errorf("oauth state signature mismatch")
	}

	return domain.GuildID(raw), nil
}

// handleOAuthStart redirects the clan owner into the upstream authorize
// flow for a guild that already has clan settings. The redirect carries
// the signed guild id as oauth state.
func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if s.cfg.OAuth == nil {
		writeText(w, http.StatusServiceUnavailable,
			"The bot is not properly configured to send invitations to the clan. Contact the bot owner to have it configured.")
		return
	}

	guildID := domain.GuildID(r.URL.Query().Get("guild"))
	if guildID == "" {
		writeText(w, http.StatusBadRequest, "Missing guild id")
		return
	}

	var clan *domain.ClanSettings
	for _, guild := range s.guilds.All() {
		if guild.GuildID == guildID {
			clan = guild.Clan
			break
		}
	}
	if clan == nil {
		writeText(w, http.StatusBadRequest, "Clan settings not found, set up the clan first")
		return
	}

	oauthClient := s.blClient.WithOAuth(api.OAuthCredentials{
		ClientID:     s.cfg.OAuth.ClientID,
		ClientSecret: s.cfg.OAuth.ClientSecret,
		RedirectURI:  s.cfg.OAuth.RedirectURI,
	}, s.tokens.TokenStoreFor(clan.OwnerPlayerID))

	state := SignOAuthState(s.cfg.OAuth.ClientSecret, guildID)
	http.Redirect(w, r, oauthClient.AuthorizeURL(state), http.StatusFound)
}

// handleOAuthCallback completes the authorization-code flow for a clan
// owner and marks the guild's clan settings as OAuth-ready. Responses are
// plain text since the user lands here from a browser redirect.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.cfg.OAuth == nil {
		writeText(w, http.StatusServiceUnavailable,
			"The bot is not properly configured to send invitations to the clan. Contact the bot owner to have it configured.")
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeText(w, http.StatusBadGateway,
			"Something went wrong.\n\nNo authorization code or oauth state in response, can not continue.")
		return
	}

	guildID, err := verifyOAuthState(s.cfg.OAuth.ClientSecret, state)
	if err != nil {
		s.logger.Warn().Err(err).Msg("oauth state rejected")
		writeText(w, http.StatusBadRequest, fmt.Sprintf("Invalid oauth state: %s", err))
		return
	}

	guild, err := s.guilds.Get(guildID)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid guild ID")
		return
	}
	if guild.Clan == nil {
		writeText(w, http.StatusBadRequest, "Clan settings not found, set up the clan first")
		return
	}

	oauthClient := s.blClient.WithOAuth(api.OAuthCredentials{
		ClientID:     s.cfg.OAuth.ClientID,
		ClientSecret: s.cfg.OAuth.ClientSecret,
		RedirectURI:  s.cfg.OAuth.RedirectURI,
	}, s.tokens.TokenStoreFor(guild.Clan.OwnerPlayerID))

	if _, err := oauthClient.ExchangeCode(r.Context(), code); err != nil {
		s.logger.Error().Err(err).
			Str("guild_id", string(guildID)).
			Msg("oauth code exchange failed")
		writeText(w, http.StatusBadGateway,
			fmt.Sprintf("An error has occurred: %s\n\nStart the clan invitation setup again.", err))
		return
	}

	updated, err := s.guilds.ModifyClanSettings(guildID, func(clan *domain.ClanSettings) {
		clan.OAuthConfigured = true
	})
	if err != nil {
		writeText(w, http.StatusInternalServerError, "An error occurred while saving clan settings")
		return
	}

	hint := "The clan owner can now send players an invitation to join the clan."
	if updated.Clan != nil && updated.Clan.SelfInvite {
		hint = "Players can now send themselves an invitation to join the clan."
	}

	writeText(w, http.StatusOK, "Clan invitation service has been set up.\n\n"+hint)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
