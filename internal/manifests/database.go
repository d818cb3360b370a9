package manifests

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// Имя базы и пользователя PostgreSQL внутри кластера. Доступ снаружи
// namespace отсутствует, аутентификация — trust в пределах сети пода.
const (
	postgresUser     = "mastodon"
	postgresDatabase = "mastodon_production"
)

// Database возвращает ресурсы PostgreSQL: Deployment и Service.
func Database(env *config.Environment) []domain.Resource {
	labels := componentLabels("postgres")
	replicas := int32(1)

	deploy := &appsv1.Deployment{
		ObjectMeta: objectMeta(PostgresServiceName, "postgres"),
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			// Том RWO: новый под не может стартовать, пока жив старый.
			Strategy: appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  "postgres",
							Image: env.Images.Postgres,
							Env: []corev1.EnvVar{
								{Name: "POSTGRES_USER", Value: postgresUser},
								{Name: "POSTGRES_DB", Value: postgresDatabase},
								{Name: "POSTGRES_HOST_AUTH_METHOD", Value: "trust"},
								{Name: "PGDATA", Value: "/var/lib/postgresql/data/pgdata"},
							},
							Ports: []corev1.ContainerPort{
								{Name: "postgres", ContainerPort: PostgresPort},
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									Exec: &corev1.ExecAction{
										Command: []string{"pg_isready", "-U", postgresUser},
									},
								},
								InitialDelaySeconds: 5,
								PeriodSeconds:       5,
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "data", MountPath: "/var/lib/postgresql/data"},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "data",
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: PostgresClaimName,
								},
							},
						},
					},
				},
			},
		},
	}

	svc := &corev1.Service{
		ObjectMeta: objectMeta(PostgresServiceName, "postgres"),
		Spec: corev1.ServiceSpec{
			Selector: labels,
			Ports: []corev1.ServicePort{
				{Name: "postgres", Port: PostgresPort, TargetPort: intstr.FromInt32(PostgresPort)},
			},
		},
	}

	return []domain.Resource{
		{
			Kind:   domain.KindDeployment,
			Name:   PostgresServiceName,
			Object: deploy,
			Requires: []domain.Reference{
				{Kind: domain.KindPersistentVolumeClaim, Name: PostgresClaimName},
			},
		},
		{Kind: domain.KindService, Name: PostgresServiceName, Object: svc},
	}
}
