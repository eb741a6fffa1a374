package tui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtray/internal/applog"
	"github.com/lotas/tabtray/internal/creditcards"
	"github.com/lotas/tabtray/internal/export"
	"github.com/lotas/tabtray/internal/firefox"
	"github.com/lotas/tabtray/internal/server"
	"github.com/lotas/tabtray/internal/tabstray"
	"github.com/lotas/tabtray/internal/types"
)

// syncTimeout bounds how long the tray shows "syncing" without a reply.
const syncTimeout = 15 * time.Second

// --- Messages ---

type sessionLoadedMsg struct {
	data *types.SessionData
	err  error
	gen  int // sync generation; 0 for the initial load
}

// trayStateMsg carries a state published by the store.
type trayStateMsg struct{ state tabstray.State }

type statusMsg string

type tabRemovedMsg struct{ id string }

type syncTimeoutMsg struct{ gen int }

// SourceMode distinguishes live vs offline.
type SourceMode int

const (
	ModeOffline SourceMode = iota
	ModeLive
)

// Messages from the WebSocket server
type wsDisconnectedMsg struct{}
type wsSnapshotMsg struct {
	data *types.SessionData
}
type wsTabCreatedMsg struct{ tab *types.Tab }
type wsTabRemovedMsg struct{ tabID int }
type wsTabUpdatedMsg struct{ tab *types.Tab }
type wsSyncedTabsMsg struct{ tabs []*types.Tab }
type wsCmdResponseMsg struct {
	id    string
	ok    bool
	error string
}

// --- Command helpers ---

var cmdCounter atomic.Int64

func nextCmdID() string {
	return fmt.Sprintf("cmd-%d", cmdCounter.Add(1))
}

func sendCmd(srv *server.Server, msg server.OutgoingMsg) tea.Cmd {
	return func() tea.Msg {
		msg.ID = nextCmdID()
		if err := srv.Send(msg); err != nil {
			applog.Error("ws.send", err, "action", msg.Action)
			return statusMsg("Could not reach the browser: " + err.Error())
		}
		return nil
	}
}

// hooks connects the model to the running program.
type hooks struct {
	mu          sync.Mutex
	send        func(tea.Msg)
	unsubscribe func()
}

func (h *hooks) setSend(send func(tea.Msg)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.send = send
}

func (h *hooks) sender() func(tea.Msg) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.send
}

func (h *hooks) setUnsubscribe(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribe = fn
}

func (h *hooks) stop() {
	h.mu.Lock()
	fn := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// trayInteractor turns tray list outcomes into UI messages.
type trayInteractor struct{}

func (trayInteractor) NavigateToBrowser(tab *types.Tab) tea.Cmd {
	return func() tea.Msg {
		return statusMsg("Switched to " + titleOf(tab))
	}
}

func (trayInteractor) TabRemoved(tabID string) tea.Cmd {
	return func() tea.Msg {
		return tabRemovedMsg{id: tabID}
	}
}

// Options configures the tray UI.
type Options struct {
	Store   *tabstray.Store
	Server  *server.Server // required in live mode
	Cards   CardStore
	Profile types.Profile
	Live    bool
}

// --- Model ---

type Model struct {
	// Data
	profile types.Profile
	session *types.SessionData
	state   tabstray.State

	// UI state
	lists     [2]TrayList // NormalTabs, PrivateTabs
	synced    int
	syncedOff int
	stack     backStack
	cards     CardsView
	editor    EditorView
	status    string
	loading   bool
	err       error
	width     int
	height    int

	// Sync
	syncGen     int
	syncPending bool

	// Live mode
	mode      SourceMode
	server    *server.Server
	connected bool

	store     *tabstray.Store
	cardStore CardStore
	editorCtl creditcards.EditorController
	nav       *navigator
	hooks     *hooks
}

func NewModel(opts Options) Model {
	nav := &navigator{}
	m := Model{
		profile:   opts.Profile,
		store:     opts.Store,
		state:     opts.Store.State(),
		server:    opts.Server,
		cardStore: opts.Cards,
		nav:       nav,
		hooks:     &hooks{},
		loading:   true,
		stack:     backStack{creditcards.DestinationTabsTray},
	}
	var useCases TabUseCases
	if opts.Live {
		m.mode = ModeLive
		useCases = liveUseCases(opts.Server)
		opts.Server.SetStatus(func() any { return opts.Store.State().Summary() })
	}
	m.lists[tabstray.NormalTabs] = NewTrayList(TrayListConfig{TabType: types.BrowserTabNormal}, opts.Store, trayInteractor{}, useCases)
	m.lists[tabstray.PrivateTabs] = NewTrayList(TrayListConfig{TabType: types.BrowserTabPrivate}, opts.Store, trayInteractor{}, useCases)
	if opts.Cards != nil {
		m.editorCtl = creditcards.NewEditorController(opts.Cards, nav)
		m.cards = NewCardsView(opts.Cards, creditcards.NewManagementController(nav))
		m.editor = NewEditorView(m.editorCtl)
	}
	return m
}

// liveUseCases activate and close tabs through the extension.
func liveUseCases(srv *server.Server) TabUseCases {
	return TabUseCases{
		SelectTab: func(tab *types.Tab) tea.Cmd {
			return sendCmd(srv, server.OutgoingMsg{Action: server.ActionActivate, TabID: tab.BrowserID})
		},
		RemoveTab: func(tab *types.Tab) tea.Cmd {
			return sendCmd(srv, server.OutgoingMsg{Action: server.ActionClose, TabIDs: []int{tab.BrowserID}})
		},
	}
}

// Run starts the tray UI and blocks until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.hooks.setSend(p.Send)
	m.nav.setSend(p.Send)
	_, err := p.Run()
	m.hooks.stop()
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{subscribeStore(m.store, m.hooks)}
	if m.mode == ModeLive {
		cmds = append(cmds, m.startLiveMode())
	} else {
		cmds = append(cmds, loadSession(m.profile, 0))
	}
	return tea.Batch(cmds...)
}

// subscribeStore registers the UI as a store observer. It runs as a
// command because Program.Send blocks until the event loop is running.
func subscribeStore(store *tabstray.Store, h *hooks) tea.Cmd {
	return func() tea.Msg {
		send := h.sender()
		if send == nil {
			return nil
		}
		h.setUnsubscribe(store.Subscribe(func(s tabstray.State) {
			send(trayStateMsg{state: s})
		}))
		return nil
	}
}

func (m Model) startLiveMode() tea.Cmd {
	return tea.Batch(
		listenWebSocket(m.server),
		startWSServer(m.server),
	)
}

func startWSServer(srv *server.Server) tea.Cmd {
	return func() tea.Msg {
		if err := srv.ListenAndServe(context.Background()); err != nil {
			applog.Error("ws.listen", err, "port", srv.Port())
		}
		return wsDisconnectedMsg{}
	}
}

func loadSession(profile types.Profile, gen int) tea.Cmd {
	return func() tea.Msg {
		data, err := firefox.ReadSessionFile(profile.Path)
		if err != nil {
			return sessionLoadedMsg{err: err, gen: gen}
		}
		data.Profile = profile
		return sessionLoadedMsg{data: data, gen: gen}
	}
}

func listenWebSocket(srv *server.Server) tea.Cmd {
	return func() tea.Msg {
		for {
			msg, ok := <-srv.Messages()
			if !ok {
				return wsDisconnectedMsg{}
			}
			switch msg.Type {
			case server.MsgSnapshot:
				data, err := server.ParseSnapshot(msg)
				if err != nil {
					applog.Error("ws.snapshot", err)
					continue
				}
				return wsSnapshotMsg{data: data}
			case server.MsgTabCreated:
				tab, err := server.ParseTab(msg.Tab)
				if err != nil {
					continue // skip malformed, keep listening
				}
				return wsTabCreatedMsg{tab: tab}
			case server.MsgTabRemoved:
				return wsTabRemovedMsg{tabID: msg.TabID}
			case server.MsgTabUpdated:
				tab, err := server.ParseTab(msg.Tab)
				if err != nil {
					continue
				}
				return wsTabUpdatedMsg{tab: tab}
			case server.MsgSyncedTabs:
				tabs, err := server.ParseSyncedTabs(msg)
				if err != nil {
					applog.Error("ws.synced_tabs", err)
					continue
				}
				return wsSyncedTabsMsg{tabs: tabs}
			default:
				if msg.ID != "" && msg.OK != nil {
					return wsCmdResponseMsg{id: msg.ID, ok: *msg.OK, error: msg.Error}
				}
				// Unknown message type, skip and keep listening
			}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].Width = m.width
			m.lists[i].Height = m.height - 4 // navbar + status bar
		}
		return m, nil

	case trayStateMsg:
		m.state = msg.state
		return m, nil

	case navFlushMsg:
		return m, m.applyNav(m.nav.drain())

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tabRemovedMsg:
		m.removeTab(msg.id)
		return m, nil

	case syncTimeoutMsg:
		if msg.gen == m.syncGen && m.syncPending {
			m.finishSync()
			m.status = "Sync timed out"
		}
		return m, nil

	case sessionLoadedMsg:
		isSync := msg.gen != 0
		if isSync && (msg.gen != m.syncGen || !m.syncPending) {
			applog.Info("sync.stale", "gen", msg.gen, "current", m.syncGen)
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if isSync {
				m.finishSync()
				m.status = "Sync failed: " + msg.err.Error()
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		if m.session != nil {
			msg.data.SyncedTabs = m.session.SyncedTabs
		}
		m.session = msg.data
		m.err = nil
		if isSync {
			// Offline tab IDs are positions in the session file, so a
			// selection made before the re-read may now name other tabs.
			if m.state.InSelectMode() {
				m.store.Dispatch(tabstray.ExitSelectMode{})
			}
			m.finishSync()
			m.status = fmt.Sprintf("Synced %d tabs", len(m.session.Tabs))
		}
		return m, nil

	case wsSnapshotMsg:
		m.loading = false
		m.connected = true
		if m.session != nil {
			msg.data.SyncedTabs = m.session.SyncedTabs
		}
		m.session = msg.data
		m.session.Profile = m.profile
		return m, listenWebSocket(m.server)

	case wsTabCreatedMsg:
		m.ensureSession()
		m.session.Tabs = append(m.session.Tabs, msg.tab)
		return m, listenWebSocket(m.server)

	case wsTabRemovedMsg:
		m.removeTab(server.LiveTabID(msg.tabID))
		return m, listenWebSocket(m.server)

	case wsTabUpdatedMsg:
		m.updateTab(msg.tab)
		return m, listenWebSocket(m.server)

	case wsSyncedTabsMsg:
		m.ensureSession()
		m.session.SyncedTabs = msg.tabs
		if m.syncPending {
			m.finishSync()
			m.status = fmt.Sprintf("Synced %d tabs from other devices", len(msg.tabs))
		}
		return m, listenWebSocket(m.server)

	case wsCmdResponseMsg:
		if !msg.ok {
			m.status = "Browser refused " + msg.id + ": " + msg.error
		}
		return m, listenWebSocket(m.server)

	case wsDisconnectedMsg:
		m.connected = false
		return m, nil

	case creditcards.SavedMsg:
		m.editor.Update(msg)
		m.status = "Saved card " + msg.Card.ObscuredNumber()
		return m, nil

	case creditcards.SaveFailedMsg:
		m.editor.Update(msg)
		return m, nil

	case cardsLoadedMsg, cardDeletedMsg:
		return m, m.cards.Update(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.stack.top() {
		case creditcards.DestinationCreditCardEditor:
			if msg.String() == "esc" {
				// The controller pops back itself once a pending save lands.
				if m.editor.Saving() {
					return m, nil
				}
				return m, m.applyNav([]navOp{{pop: true}})
			}
			return m, m.editor.Update(msg)
		case creditcards.DestinationCreditCardsManagement:
			switch msg.String() {
			case "esc", "q":
				return m, m.applyNav([]navOp{{pop: true}})
			}
			return m, m.cards.Update(msg)
		}
		return m.updateTray(msg)
	}

	// Forward cursor blinks and other input messages to the editor.
	if m.stack.top() == creditcards.DestinationCreditCardEditor {
		return m, m.editor.Update(msg)
	}
	return m, nil
}

func (m Model) updateTray(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		m.store.Dispatch(tabstray.PageSelected{Page: tabstray.PageFromPosition((m.state.SelectedPage.Position() + 1) % 3)})
		return m, nil
	case "shift+tab":
		m.store.Dispatch(tabstray.PageSelected{Page: tabstray.PageFromPosition((m.state.SelectedPage.Position() + 2) % 3)})
		return m, nil
	case "1", "2", "3":
		m.store.Dispatch(tabstray.PageSelected{Page: tabstray.PageFromPosition(int(msg.String()[0] - '1'))})
		return m, nil
	case "v":
		if m.state.InSelectMode() {
			m.store.Dispatch(tabstray.ExitSelectMode{})
		} else {
			m.store.Dispatch(tabstray.EnterSelectMode{})
		}
		return m, nil
	case "esc":
		if m.state.InSelectMode() {
			m.store.Dispatch(tabstray.ExitSelectMode{})
		}
		return m, nil
	case "s":
		return m, m.startSync()
	case "e":
		if !m.state.InSelectMode() {
			return m, nil
		}
		tabs := m.state.CurrentMode().SelectedTabs()
		if len(tabs) == 0 {
			m.status = "Nothing selected"
			return m, nil
		}
		m.store.Dispatch(tabstray.ExitSelectMode{})
		return m, shareTabs(tabs)
	case "c":
		if m.cardStore == nil {
			m.status = "Credit card storage is not available"
			return m, nil
		}
		return m, m.applyNav([]navOp{{dest: creditcards.DestinationCreditCardsManagement}})
	}

	switch m.state.SelectedPage {
	case tabstray.NormalTabs, tabstray.PrivateTabs:
		return m, m.lists[m.state.SelectedPage].Update(msg, m.session, m.state)
	case tabstray.SyncedTabs:
		m.moveSyncedCursor(msg.String())
	}
	return m, nil
}

func (m *Model) moveSyncedCursor(key string) {
	var n int
	if m.session != nil {
		n = len(m.session.SyncedTabs)
	}
	switch key {
	case "up", "k":
		if m.synced > 0 {
			m.synced--
		}
	case "down", "j":
		if m.synced < n-1 {
			m.synced++
		}
	}
}

// startSync asks for fresh tabs: the extension in live mode, the session
// file otherwise. A timer ends the sync if no reply arrives.
func (m *Model) startSync() tea.Cmd {
	if m.syncPending {
		return nil
	}
	m.syncPending = true
	m.syncGen++
	gen := m.syncGen
	m.store.Dispatch(tabstray.SyncNow{})
	applog.Info("sync.start", "mode", m.mode, "gen", gen)

	timeout := tea.Tick(syncTimeout, func(time.Time) tea.Msg { return syncTimeoutMsg{gen: gen} })
	if m.mode == ModeLive {
		return tea.Batch(sendCmd(m.server, server.OutgoingMsg{Action: server.ActionSyncTabs}), timeout)
	}
	return tea.Batch(loadSession(m.profile, gen), timeout)
}

// shareTabs copies the tabs to the clipboard as a markdown list.
func shareTabs(tabs []types.Tab) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(export.Selection(tabs)); err != nil {
			applog.Error("share", err, "tabs", len(tabs))
			return statusMsg("Could not copy to clipboard: " + err.Error())
		}
		applog.Info("share", "tabs", len(tabs))
		return statusMsg(fmt.Sprintf("Copied %d tabs", len(tabs)))
	}
}

func (m *Model) finishSync() {
	m.syncPending = false
	m.store.Dispatch(tabstray.SyncCompleted{})
}

// applyNav moves between screens and prepares the screen being shown.
func (m *Model) applyNav(ops []navOp) tea.Cmd {
	var cmds []tea.Cmd
	for _, op := range ops {
		before := m.stack.top()
		m.stack = m.stack.apply(op)
		after := m.stack.top()
		if before == after {
			continue
		}
		switch after {
		case creditcards.DestinationCreditCardEditor:
			m.editor = NewEditorView(m.editorCtl)
		case creditcards.DestinationCreditCardsManagement:
			cmds = append(cmds, loadCards(m.cardStore))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) ensureSession() {
	if m.session == nil {
		m.session = &types.SessionData{Profile: m.profile, ParsedAt: time.Now()}
	}
}

func (m *Model) removeTab(id string) {
	tab := m.session.FindTab(id)
	if tab == nil {
		return
	}
	if m.state.IsSelected(id) {
		m.store.Dispatch(tabstray.RemoveSelectTab{Tab: *tab})
	}
	m.session.RemoveTab(id)
}

func (m *Model) updateTab(tab *types.Tab) {
	m.ensureSession()
	for i, t := range m.session.Tabs {
		if t.ID == tab.ID {
			m.session.Tabs[i] = tab
			return
		}
	}
	m.session.Tabs = append(m.session.Tabs, tab)
}

func (m *Model) counts() [3]int {
	var c [3]int
	if m.session == nil {
		return c
	}
	for _, t := range m.session.Tabs {
		if t.Private {
			c[tabstray.PrivateTabs]++
		} else {
			c[tabstray.NormalTabs]++
		}
	}
	c[tabstray.SyncedTabs] = len(m.session.SyncedTabs)
	return c
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.stack.top() {
	case creditcards.DestinationCreditCardEditor:
		return m.editor.View()
	case creditcards.DestinationCreditCardsManagement:
		return m.cards.View()
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(1, 2)

	profileName := m.profile.Name
	if m.mode == ModeLive {
		profileName = "Live"
		if !m.connected {
			profileName += " (waiting for extension)"
		}
	}
	navbar := renderNavbar(m.state, m.counts(), profileName, m.width)

	var body string
	switch {
	case m.err != nil:
		body = errStyle.Render("Error: " + m.err.Error())
	case m.loading && m.session == nil:
		body = dimStyle.Padding(1, 2).Render("Loading tabs...")
	case m.state.SelectedPage == tabstray.SyncedTabs:
		body = m.viewSynced()
	default:
		body = m.lists[m.state.SelectedPage].View(m.session, m.state)
	}

	help := "tab/1-3 page · v select · space toggle · enter open · x close · s sync · c cards · q quit"
	if m.state.InSelectMode() {
		help = "space toggle · x close selected · e copy selected · esc done"
	}
	bottom := dimStyle.Render(" " + help)
	if m.status != "" {
		bottom = " " + m.status + "\n" + bottom
	}

	return navbar + "\n\n" + body + "\n" + bottom
}

func (m *Model) viewSynced() string {
	if m.session == nil || len(m.session.SyncedTabs) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1, 2).Render("No synced tabs. Press s to sync.")
	}
	return renderTabRows(m.session.SyncedTabs, m.synced, &m.syncedOff, m.height-4, m.width, m.state)
}
