package api

import "net/http"

const (
	routeHealth = "/healthz"

	routeRegister = "/api/register"
	routeLogin    = "/api/login"
	routeLogout   = "/api/logout"
	routeAuthUser = "/api/auth/user"
	routeToken    = "/api/auth/token"

	routeCards = "/api/cards"
	routeCard  = "/api/cards/{id}"

	routeTrainingSessions = "/api/training-sessions"
	routeLeaderboard      = "/api/leaderboard/{mode}"

	routeGames      = "/api/simulator/games"
	routeGame       = "/api/simulator/games/{id}"
	routeGameRounds = "/api/simulator/games/{id}/rounds"
	routeGameGuess  = "/api/simulator/games/{id}/guess"
	routeGameFinish = "/api/simulator/games/{id}/finish"

	routeCRClanSearch      = "/api/clash-royale/clans/search"
	routeCRClan            = "/api/clash-royale/clans/{tag}"
	routeCRClanMembers     = "/api/clash-royale/clans/{tag}/members"
	routeCRClanWarLog      = "/api/clash-royale/clans/{tag}/warlog"
	routeCRPlayer          = "/api/clash-royale/players/{tag}"
	routeCRPlayerBattleLog = "/api/clash-royale/players/{tag}/battlelog"
	routeCRPlayerChests    = "/api/clash-royale/players/{tag}/upcomingchests"
	routeCRTournaments     = "/api/clash-royale/tournaments"
	routeCRTournament      = "/api/clash-royale/tournaments/{tag}"
	routeCRCards           = "/api/clash-royale/cards"

	routeAdminUsers          = "/api/admin/users"
	routeAdminUserPermission = "/api/admin/users/{id}/permission"
)

func (s *Server) register(mux *http.ServeMux) {
	get := func(pattern string, h http.HandlerFunc) { mux.HandleFunc(http.MethodGet+" "+pattern, h) }
	post := func(pattern string, h http.HandlerFunc) { mux.HandleFunc(http.MethodPost+" "+pattern, h) }
	put := func(pattern string, h http.HandlerFunc) { mux.HandleFunc(http.MethodPut+" "+pattern, h) }

	get(routeHealth, s.handleHealth)

	post(routeRegister, s.handleRegister)
	post(routeLogin, s.handleLogin)
	post(routeLogout, s.handleLogout)
	get(routeAuthUser, s.authn.RequireUser(s.handleCurrentUser))
	mux.HandleFunc(http.MethodPatch+" "+routeAuthUser, s.authn.RequireUser(s.handleUpdateProfile))
	post(routeToken, s.authn.RequireUser(s.handleMintToken))

	get(routeCards, s.handleListCards)
	get(routeCard, s.handleGetCard)
	post(routeCards, s.authn.RequireAdmin(s.handleCreateCard))
	put(routeCard, s.authn.RequireAdmin(s.handleUpdateCard))
	mux.HandleFunc(http.MethodDelete+" "+routeCard, s.authn.RequireAdmin(s.handleDeleteCard))

	post(routeTrainingSessions, s.authn.RequireUser(s.handleCreateTrainingSession))
	get(routeTrainingSessions, s.authn.RequireUser(s.handleListTrainingSessions))
	get(routeLeaderboard, s.handleLeaderboard)

	post(routeGames, s.authn.RequireUser(s.handleCreateGame))
	get(routeGame, s.authn.RequireUser(s.handleGetGame))
	post(routeGameRounds, s.authn.RequireUser(s.handleNextRound))
	post(routeGameGuess, s.authn.RequireUser(s.handleGuess))
	post(routeGameFinish, s.authn.RequireUser(s.handleFinishGame))

	get(routeCRClanSearch, s.handleSearchClans)
	get(routeCRClan, s.proxyTag(s.clashRoyale.Clan))
	get(routeCRClanMembers, s.proxyTag(s.clashRoyale.ClanMembers))
	get(routeCRClanWarLog, s.proxyTag(s.clashRoyale.ClanRiverRaceLog))
	get(routeCRPlayer, s.proxyTag(s.clashRoyale.Player))
	get(routeCRPlayerBattleLog, s.proxyTag(s.clashRoyale.PlayerBattleLog))
	get(routeCRPlayerChests, s.proxyTag(s.clashRoyale.PlayerUpcomingChests))
	get(routeCRTournaments, s.handleSearchTournaments)
	get(routeCRTournament, s.proxyTag(s.clashRoyale.Tournament))
	get(routeCRCards, s.handleClashRoyaleCards)

	get(routeAdminUsers, s.authn.RequireAdmin(s.handleListUsers))
	put(routeAdminUserPermission, s.authn.RequireAdmin(s.handleSetPermission))
}
