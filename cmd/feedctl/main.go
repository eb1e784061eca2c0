// Command feedctl is a terminal client for the socialnet API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"socialnet/pkg/feedclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Failures are reported, never retried.
		log.Fatalf("❌ %v", err)
	}
}

func usage() error {
	return fmt.Errorf("usage: feedctl [-api URL] [-token JWT] <list|post|like|unlike|comment|edit|delete|profile|bio> [args]")
}

func run(args []string) error {
	fs := flag.NewFlagSet("feedctl", flag.ContinueOnError)
	api := fs.String("api", envOr("SOCIALNET_API", "http://localhost:5000"), "API base URL")
	token := fs.String("token", os.Getenv("SOCIALNET_TOKEN"), "Bearer token")
	image := fs.String("image", "", "Image file to attach (post)")
	yes := fs.Bool("yes", false, "Skip delete confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := feedclient.NewClient(*api, *token)
	session := feedclient.NewSession(client)
	rest := fs.Args()[1:]
	cmd := strings.ToLower(fs.Arg(0))

	switch cmd {
	case "list":
		if err := session.Load(ctx); err != nil {
			return err
		}
		printPosts(session.View().Posts())
	case "post":
		if len(rest) < 1 {
			return usage()
		}
		var img *feedclient.Image
		if *image != "" {
			content, err := os.ReadFile(*image)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			img = &feedclient.Image{Filename: filepath.Base(*image), Content: content}
		}
		post, err := session.Create(ctx, strings.Join(rest, " "), img)
		if err != nil {
			return err
		}
		printPosts([]feedclient.Post{*post})
	case "like", "unlike":
		id, err := postID(rest)
		if err != nil {
			return err
		}
		call := client.Like
		if cmd == "unlike" {
			call = client.Unlike
		}
		post, err := call(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("post %d now has %d likes\n", post.ID, len(post.Likes))
	case "comment":
		id, err := postID(rest)
		if err != nil {
			return err
		}
		post, err := session.Comment(ctx, id, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		printPosts([]feedclient.Post{*post})
	case "edit":
		id, err := postID(rest)
		if err != nil {
			return err
		}
		post, err := session.Edit(ctx, id, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		printPosts([]feedclient.Post{*post})
	case "delete":
		id, err := postID(rest)
		if err != nil {
			return err
		}
		confirm := func() bool { return *yes || ask(fmt.Sprintf("Delete post %d?", id)) }
		if err := session.Delete(ctx, id, confirm); err != nil {
			return err
		}
		fmt.Printf("post %d removed\n", id)
	case "profile":
		var p *feedclient.Profile
		var err error
		if len(rest) == 0 {
			p, err = client.GetMyProfile(ctx)
		} else {
			var uid uint64
			uid, err = strconv.ParseUint(rest[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", rest[0])
			}
			p, err = session.LoadProfile(ctx, uint(uid))
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n%s\n\n", p.User.Name, p.User.Email, p.User.Bio)
		printPosts(p.Posts)
	case "bio":
		bio := strings.Join(rest, " ")
		user, err := client.UpdateMyProfile(ctx, &bio, nil)
		if err != nil {
			return err
		}
		fmt.Printf("bio updated for %s\n", user.Name)
	default:
		return usage()
	}
	return nil
}

func postID(args []string) (uint, error) {
	if len(args) < 1 {
		return 0, usage()
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", args[0])
	}
	return uint(id), nil
}

func printPosts(posts []feedclient.Post) {
	now := time.Now()
	for _, p := range posts {
		fmt.Printf("#%d %s · %s · ♥ %d\n  %s\n", p.ID, p.User.Name, feedclient.FormatAge(p.CreatedAt, now), len(p.Likes), p.Text)
		if p.Image != "" {
			fmt.Printf("  [image] %s\n", p.Image)
		}
		for _, c := range p.Comments {
			fmt.Printf("    %s: %s\n", c.User.Name, c.Text)
		}
	}
}

func ask(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
