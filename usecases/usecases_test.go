package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"warbler/db"
	"warbler/entities"
	"warbler/repositories"

	"github.com/google/go-cmp/cmp"
)

type recordingNotifier struct {
	mu        sync.Mutex
	messages  []string
	followers [][]uint
}

func (n *recordingNotifier) Publish(message *entities.Message, followerIDs []uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message.Text)
	n.followers = append(n.followers, followerIDs)
}

type fixture struct {
	users    *UserUseCase
	messages *MessageUseCase
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "warbler-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database := &db.GormDatabase{DB: gdb}

	userRepo := repositories.NewUserPgRepository(database)
	messageRepo := repositories.NewMessagePgRepository(database)
	followRepo := repositories.NewFollowPgRepository(database)
	likeRepo := repositories.NewLikePgRepository(database)
	notifier := &recordingNotifier{}

	return &fixture{
		users:    NewUserUseCase(userRepo, followRepo, likeRepo, messageRepo),
		messages: NewMessageUseCase(messageRepo, followRepo, likeRepo, notifier),
		notifier: notifier,
	}
}

func (f *fixture) register(t *testing.T, name string) *entities.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), name, name+"@example.com", "password", "")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "testuser")

	if user.ID == 0 {
		t.Fatal("registered user has no id")
	}
	if user.Password == "password" {
		t.Fatal("password stored in plaintext")
	}

	_, err := f.users.Register(ctx, "testuser", "other@example.com", "password", "")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register err = %v, want ErrUsernameTaken", err)
	}

	_, err = f.users.Register(ctx, "nopass", "nopass@example.com", "", "")
	if !errors.Is(err, entities.ErrInvalidPassword) {
		t.Fatalf("empty password err = %v, want ErrInvalidPassword", err)
	}
	if _, err := f.users.Users.GetByUsername(ctx, "nopass"); err == nil {
		t.Fatal("row written for invalid signup")
	}
	if n, _ := f.users.Users.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "user1")

	if u, err := f.users.Authenticate(ctx, "user1", "password"); err != nil || u.Username != "user1" {
		t.Fatalf("Authenticate = (%v, %v)", u, err)
	}
	if _, err := f.users.Authenticate(ctx, "user1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := f.users.Authenticate(ctx, "nobody", "password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestFollowRelationships(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user1 := f.register(t, "user1")
	user2 := f.register(t, "user2")

	if err := f.users.Follow(ctx, user1, user2.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	following1, _ := f.users.ListFollowing(ctx, user1.ID)
	followers1, _ := f.users.ListFollowers(ctx, user1.ID)
	following2, _ := f.users.ListFollowing(ctx, user2.ID)
	followers2, _ := f.users.ListFollowers(ctx, user2.ID)

	if len(following1) != 1 || following1[0].ID != user2.ID {
		t.Errorf("user1.following = %+v", following1)
	}
	if len(followers1) != 0 {
		t.Errorf("user1.followers = %+v", followers1)
	}
	if len(following2) != 0 {
		t.Errorf("user2.following = %+v", following2)
	}
	if len(followers2) != 1 || followers2[0].ID != user1.ID {
		t.Errorf("user2.followers = %+v", followers2)
	}

	if ok, _ := f.users.IsFollowing(ctx, user1, user2); !ok {
		t.Error("user1.IsFollowing(user2) = false")
	}
	if ok, _ := f.users.IsFollowing(ctx, user2, user1); ok {
		t.Error("user2.IsFollowing(user1) = true")
	}
	if ok, _ := f.users.IsFollowedBy(ctx, user2, user1); !ok {
		t.Error("user2.IsFollowedBy(user1) = false")
	}
	if ok, _ := f.users.IsFollowedBy(ctx, user1, user2); ok {
		t.Error("user1.IsFollowedBy(user2) = true")
	}

	if err := f.users.Unfollow(ctx, user1, user2.ID); err != nil {
		t.Fatal(err)
	}
	if ok, _ := f.users.IsFollowing(ctx, user1, user2); ok {
		t.Error("still following after Unfollow")
	}
}

func TestFollowRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user1 := f.register(t, "user1")

	if err := f.users.Follow(ctx, user1, user1.ID); !errors.Is(err, ErrSelfFollow) {
		t.Errorf("self follow err = %v", err)
	}
	if err := f.users.Follow(ctx, user1, 99222224); !errors.Is(err, ErrNotFound) {
		t.Errorf("follow unknown err = %v", err)
	}
	if err := f.users.Follow(ctx, nil, user1.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous follow err = %v", err)
	}
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.register(t, "author")
	fan := f.register(t, "fan")
	if err := f.users.Follow(ctx, fan, author.ID); err != nil {
		t.Fatal(err)
	}

	msg, err := f.messages.Create(ctx, author, "  Hello  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if msg.Text != "Hello" || msg.UserID != author.ID {
		t.Errorf("message = %+v", msg)
	}

	own, _ := f.users.UserMessages(ctx, author.ID, 100)
	if len(own) != 1 || own[0].ID != msg.ID {
		t.Fatalf("author messages = %+v", own)
	}

	if diff := cmp.Diff([]string{"Hello"}, f.notifier.messages); diff != "" {
		t.Errorf("published (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]uint{{fan.ID}}, f.notifier.followers); diff != "" {
		t.Errorf("fan-out (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "   ", strings.Repeat("x", 141)} {
		if _, err := f.messages.Create(ctx, author, bad); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("Create(%q) err = %v, want ErrInvalidMessage", bad, err)
		}
	}
	if _, err := f.messages.Create(ctx, nil, "Hello"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous Create err = %v", err)
	}
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	msg, err := f.messages.Create(ctx, owner, "a test message")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.messages.Delete(ctx, other, msg.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner delete err = %v, want ErrForbidden", err)
	}
	if _, err := f.messages.Get(ctx, msg.ID); err != nil {
		t.Fatalf("message removed by non-owner: %v", err)
	}
	if err := f.messages.Delete(ctx, nil, msg.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous delete err = %v", err)
	}
	if err := f.messages.Delete(ctx, owner, 99999999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete unknown err = %v", err)
	}
	if err := f.messages.Delete(ctx, owner, msg.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := f.messages.Get(ctx, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user1 := f.register(t, "user1")
	user2 := f.register(t, "user2")
	message1, _ := f.messages.Create(ctx, user1, "Test message")
	if _, err := f.messages.Create(ctx, user1, "warble, interesting"); err != nil {
		t.Fatal(err)
	}

	liked, err := f.messages.ToggleLike(ctx, user2, message1.ID)
	if err != nil || !liked {
		t.Fatalf("first toggle = (%v, %v), want (true, nil)", liked, err)
	}
	likes, _ := f.users.LikesByUser(ctx, user2.ID)
	if len(likes) != 1 || likes[0].MessageID != message1.ID {
		t.Fatalf("likes = %+v", likes)
	}
	set, _ := f.messages.LikedSet(ctx, user2.ID)
	if !set[message1.ID] {
		t.Error("LikedSet misses liked message")
	}

	liked, err = f.messages.ToggleLike(ctx, user2, message1.ID)
	if err != nil || liked {
		t.Fatalf("second toggle = (%v, %v), want (false, nil)", liked, err)
	}
	if likes, _ := f.users.LikesByUser(ctx, user2.ID); len(likes) != 0 {
		t.Fatalf("likes after unlike = %+v", likes)
	}

	if _, err := f.messages.ToggleLike(ctx, user1, message1.ID); !errors.Is(err, ErrSelfLike) {
		t.Errorf("self like err = %v", err)
	}
	if _, err := f.messages.ToggleLike(ctx, user2, 424242); !errors.Is(err, ErrNotFound) {
		t.Errorf("like unknown err = %v", err)
	}
}

func TestTimeline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	me := f.register(t, "me")
	friend := f.register(t, "friend")
	stranger := f.register(t, "stranger")
	_ = f.users.Follow(ctx, me, friend.ID)

	for _, p := range []struct {
		u    *entities.User
		text string
	}{{me, "mine"}, {friend, "friend's"}, {stranger, "stranger's"}} {
		if _, err := f.messages.Create(ctx, p.u, p.text); err != nil {
			t.Fatal(err)
		}
	}

	timeline, err := f.messages.Timeline(ctx, me, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, m := range timeline {
		got[m.Text] = true
	}
	if diff := cmp.Diff(map[string]bool{"mine": true, "friend's": true}, got); diff != "" {
		t.Errorf("timeline (-want +got):\n%s", diff)
	}
}

func TestUpdateProfileAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user1 := f.register(t, "user1")
	f.register(t, "user2")

	if _, err := f.users.UpdateProfile(ctx, user1, "wrong", ProfileUpdate{Bio: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := f.users.UpdateProfile(ctx, user1, "password", ProfileUpdate{Username: "user2"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("taken username err = %v", err)
	}
	updated, err := f.users.UpdateProfile(ctx, user1, "password", ProfileUpdate{Bio: "hello", Location: "Earth"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Bio != "hello" || updated.Location != "Earth" || updated.Username != "user1" {
		t.Errorf("updated = %+v", updated)
	}

	if err := f.users.DeleteUser(ctx, user1); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := f.users.GetUser(ctx, user1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser after delete err = %v", err)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user1 := f.register(t, "user1")
	user2 := f.register(t, "user2")
	user3 := f.register(t, "user3")

	message, _ := f.messages.Create(ctx, user1, "first")
	if _, err := f.messages.Create(ctx, user1, "second"); err != nil {
		t.Fatal(err)
	}
	_ = f.users.Follow(ctx, user2, user1.ID)
	_ = f.users.Follow(ctx, user3, user1.ID)
	_ = f.users.Follow(ctx, user1, user3.ID)
	if _, err := f.messages.ToggleLike(ctx, user2, message.ID); err != nil {
		t.Fatal(err)
	}

	got, err := f.users.Stats(ctx, user1.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{Messages: 2, Following: 1, Followers: 2, Likes: 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("user1 stats mismatch (-want +got):\n%s", diff)
	}

	got, _ = f.users.Stats(ctx, user2.ID)
	if diff := cmp.Diff(Stats{Following: 1, Likes: 1}, got); diff != "" {
		t.Errorf("user2 stats mismatch (-want +got):\n%s", diff)
	}
}
