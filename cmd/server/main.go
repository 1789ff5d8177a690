package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gitpress/gitpress/auth"
	"github.com/gitpress/gitpress/cache"
	"github.com/gitpress/gitpress/posts"
	"github.com/gitpress/gitpress/server"
	"github.com/gitpress/gitpress/server/middlewares"
	"github.com/gitpress/gitpress/storage"
	"github.com/gitpress/gitpress/utils/dotenv"
	Flag "github.com/gitpress/gitpress/utils/flag"
	Logger "github.com/gitpress/gitpress/utils/log"
)

// freshnessWindow reads CACHE_TTL_SECONDS, falling back to the default
// window for unset or unparsable values.
func freshnessWindow() time.Duration {
	raw := os.Getenv("CACHE_TTL_SECONDS")
	if raw == "" {
		return cache.DefaultWindow
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		Logger.Log.Warn("ignoring invalid CACHE_TTL_SECONDS: ", raw)
		return cache.DefaultWindow
	}
	return time.Duration(seconds) * time.Second
}

func userFilePath() string {
	if path := os.Getenv("GITPRESS_USERS_FILE"); path != "" {
		return path
	}
	return "users.json"
}

func main() {
	Flag.Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	// Re-init so the logger picks up parsed flags and loaded env.
	Logger.InitLogger()

	store, err := storage.NewGitHubStoreFromEnv()
	if err != nil {
		Logger.Log.Fatal("cannot construct durable store: ", err)
	}

	// A nil backend disables the cache; every read and write then goes
	// straight to the durable store.
	backend := cache.NewRedisBackendFromEnv()
	if backend == nil {
		Logger.Log.Info("no REDIS_HOST configured, running without cache")
	}
	postCache := cache.NewPostCache(backend, freshnessWindow())

	coordinator := posts.NewCoordinator(store, postCache)

	users, err := auth.NewUserStore(userFilePath())
	if err != nil {
		Logger.Log.Fatal("cannot load user store: ", err)
	}
	sessions := auth.NewSessionManager()
	middlewares.Setup(sessions)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	server.NewServer(coordinator, users, sessions).RegisterRoutes(router)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Logger.Log.Info("blog server starts up")
	router.Run(":8080")
}
