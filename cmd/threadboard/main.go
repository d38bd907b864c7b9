package main

import (
	"context"
	"database/sql"
	"flag"
	"io/ioutil"
	"log"
	"net/http"
	"threadboard/pkg/comments"
	"threadboard/pkg/handlers"
	"threadboard/pkg/middleware"
	"threadboard/pkg/posts"
	"threadboard/pkg/session"
	"threadboard/pkg/user"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var createSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id bigint unsigned NOT NULL AUTO_INCREMENT,
		username VARCHAR(30) NOT NULL,
		password VARBINARY(100) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY username (username)
	) ENGINE=INNODB DEFAULT CHARSET=utf8;`,
	`CREATE TABLE IF NOT EXISTS posts (
		id bigint unsigned NOT NULL AUTO_INCREMENT,
		title VARCHAR(200) NOT NULL,
		content TEXT NOT NULL,
		upvotes bigint NOT NULL DEFAULT 0,
		downvotes bigint NOT NULL DEFAULT 0,
		created DATETIME(6) NOT NULL,
		author_id bigint unsigned NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=INNODB DEFAULT CHARSET=utf8;`,
	`CREATE TABLE IF NOT EXISTS comments (
		id bigint unsigned NOT NULL AUTO_INCREMENT,
		post_id bigint unsigned NOT NULL,
		parent_id bigint unsigned NULL,
		author_id bigint unsigned NOT NULL,
		content TEXT NOT NULL,
		created DATETIME(6) NOT NULL,
		PRIMARY KEY (id),
		KEY post_id (post_id),
		KEY parent_id (parent_id)
	) ENGINE=INNODB DEFAULT CHARSET=utf8;`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(36) NOT NULL,
		user_id bigint unsigned NOT NULL,
		PRIMARY KEY (id),
		KEY user_id (user_id)
	) ENGINE=INNODB DEFAULT CHARSET=utf8;`,
}

func main() {
	app := &Application{}

	flag.StringVar(&app.ServerAddr, "addr", "127.0.0.1:8000", "address to listen on")
	flag.StringVar(&app.MySQLConnectionString, "mysql", "root:qwer1234@tcp(localhost:3306)/threadboard?parseTime=true", "mysql dsn")
	flag.StringVar(&app.MongoConnectionString, "mongo", "mongodb://localhost:27017", "mongodb uri")
	flag.StringVar(&app.MongoDBName, "mongodb", "threadboard_db", "mongodb database name")
	flag.StringVar(&app.RedisAddr, "redis", "localhost:6379", "redis address")
	flag.StringVar(&app.Storage, "storage", "mysql", "posts/comments backend: mysql or mongo")
	flag.StringVar(&app.Sessions, "sessions", "redis", "session backend: redis or mysql")
	flag.StringVar(&app.PrivateKeyLocation, "key", "key.rsa", "path to the RSA private key")
	flag.StringVar(&app.PublicKeyLocation, "pubkey", "key.rsa.pub", "path to the RSA public key")
	flag.Parse()

	app.Run()
}

type Application struct {
	MongoConnectionString string
	MongoDBName           string
	MySQLConnectionString string
	RedisAddr             string

	Storage  string
	Sessions string

	ServerAddr         string
	PublicKeyLocation  string
	PrivateKeyLocation string

	HTTPServer *http.Server
}

func (a *Application) Run() {
	zapLogger, _ := zap.NewProduction()
	defer zapLogger.Sync() // flushes buffer, if any
	logger := zapLogger.Sugar()

	privateKeyBytes, err := ioutil.ReadFile(a.PrivateKeyLocation)
	if err != nil {
		panic(err)
	}

	publicKeyBytes, err := ioutil.ReadFile(a.PublicKeyLocation)
	if err != nil {
		panic(err)
	}

	smJWT, err := session.NewSessionsJWTManager(privateKeyBytes, publicKeyBytes)
	if err != nil {
		panic(err)
	}

	db, err := sql.Open("mysql", a.MySQLConnectionString)
	if err != nil {
		panic(err.Error())
	}

	defer db.Close()
	err = db.Ping()
	if err != nil {
		panic(err)
	}

	for _, stmt := range createSchema {
		_, err = db.Exec(stmt)
		if err != nil {
			panic(err)
		}
	}

	var sm session.SessionManager
	switch a.Sessions {
	case "mysql":
		sm = session.NewSessionManagerSQL(db, smJWT)
	default:
		rdb := redis.NewClient(&redis.Options{Addr: a.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			panic(err.Error())
		}

		sm = session.NewSessionManagerRedis(rdb, smJWT)
	}

	userRepo := user.NewUserRepoSQL(db)

	var postsRepo handlers.PostsRepo
	var commentsRepo handlers.CommentsRepo
	if a.Storage == "mongo" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := posts.NewMongoClient(ctx, a.MongoConnectionString)
		if err != nil {
			panic(err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			panic(err)
		}

		mongoDB := client.Database(a.MongoDBName)
		postsRepo = posts.NewPostsRepoMongo(mongoDB)
		commentsRepo = comments.NewCommentsRepoMongo(mongoDB)
	} else {
		postsRepo = posts.NewPostsRepoSQL(db)
		commentsRepo = comments.NewCommentsRepoSQL(db)
	}

	userHandler := &handlers.UserHandler{
		Sm:     sm,
		Repo:   userRepo,
		Logger: logger,
	}

	postsHandler := &handlers.PostHandler{
		Sm:           sm,
		PostsRepo:    postsRepo,
		UsersRepo:    userRepo,
		CommentsRepo: commentsRepo,
		Logger:       logger,
	}

	commentsHandler := &handlers.CommentHandler{
		CommentsRepo: commentsRepo,
		PostsRepo:    postsRepo,
		UsersRepo:    userRepo,
		Logger:       logger,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/").Subrouter()

	api.HandleFunc("/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", userHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost)

	api.HandleFunc("/posts/", postsHandler.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/posts", postsHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/post/{post_id}", postsHandler.GetByID).Methods(http.MethodGet)

	api.HandleFunc("/post/{post_id}/upvote", postsHandler.Upvote).Methods(http.MethodGet)
	api.HandleFunc("/post/{post_id}/downvote", postsHandler.Downvote).Methods(http.MethodGet)

	api.HandleFunc("/post/{post_id}", commentsHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/post/{post_id}/comments", commentsHandler.Thread).Methods(http.MethodGet)
	api.HandleFunc("/comment/{comment_id}/replies", commentsHandler.Replies).Methods(http.MethodGet)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteResponse(w, "not found", http.StatusNotFound)
	})

	handler := middleware.Auth(logger, sm, r)
	handler = middleware.Log(logger, handler)
	handler = middleware.Recover(logger, handler)

	srv := &http.Server{
		Handler:      handler,
		Addr:         a.ServerAddr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	a.HTTPServer = srv

	logger.Infof("Started server at %s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}
